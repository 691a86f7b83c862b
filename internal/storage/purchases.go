package storage

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"lottery-bot/internal/models"
)

// RegisterUser creates or refreshes a user record. Idempotent; phone is only
// overwritten when a non-empty value is supplied.
func (s *Store) RegisterUser(userID int64, username, fullName, phoneNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	key := userKey(userID)

	record, ok := s.data.Users[key]
	if !ok {
		s.data.Users[key] = &models.UserRecord{
			UserID:      userID,
			Username:    username,
			FullName:    fullName,
			PhoneNumber: phoneNumber,
			FirstSeen:   now,
			LastActive:  now,
			History:     []models.HistoryEntry{},
		}
	} else {
		if username != "" {
			record.Username = username
		}
		if fullName != "" {
			record.FullName = fullName
		}
		if phoneNumber != "" {
			record.PhoneNumber = phoneNumber
		}
		record.LastActive = now
	}

	return s.persistLocked()
}

// RemainingTickets returns the current size of the available pool.
func (s *Store) RemainingTickets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.AvailableTickets)
}

// ListAvailableTickets returns a copy of the unsold ticket numbers.
func (s *Store) ListAvailableTickets() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyInts(s.data.AvailableTickets)
}

// CreatePendingPurchase records a new purchase awaiting admin review and
// returns its ID. The pool is not touched here: tickets are only consumed at
// approval time, since several purchases may be pending against the same
// pool. The caller checks quantity against RemainingTickets beforehand.
func (s *Store) CreatePendingPurchase(userID int64, username, fullName, phoneNumber string, quantity int, ticketPrice int64, receiptFileID string, receiptKind models.ReceiptKind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchaseID := uuid.New().String()
	s.data.Pending[purchaseID] = &models.Purchase{
		ID:            purchaseID,
		UserID:        userID,
		Username:      username,
		FullName:      fullName,
		PhoneNumber:   phoneNumber,
		Quantity:      quantity,
		TicketPrice:   ticketPrice,
		Amount:        ticketPrice * int64(quantity),
		ReceiptFileID: receiptFileID,
		ReceiptKind:   receiptKind,
		CreatedAt:     s.now().UTC(),
		Status:        models.StatusPending,
	}

	if err := s.persistLocked(); err != nil {
		return "", err
	}
	return purchaseID, nil
}

// SetAdminMessage pins the admin review message to a pending purchase so the
// decision handler can edit that message later. No-op if the purchase has
// already been resolved.
func (s *Store) SetAdminMessage(purchaseID string, chatID int64, messageID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchase, ok := s.data.Pending[purchaseID]
	if !ok {
		return nil
	}
	purchase.AdminMessage = &models.AdminMessageRef{ChatID: chatID, MessageID: messageID}
	return s.persistLocked()
}

// IsPending reports whether the purchase is still awaiting a decision.
func (s *Store) IsPending(purchaseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data.Pending[purchaseID]
	return ok
}

// ApprovePurchase resolves a pending purchase by drawing its tickets from the
// pool. A nil purchase result means the ID is unknown or already resolved, or
// the pool can no longer satisfy the quantity; in the shortage case the
// purchase stays pending untouched and the admin may retry or reject.
func (s *Store) ApprovePurchase(purchaseID string) ([]int, *models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchase, ok := s.data.Pending[purchaseID]
	if !ok {
		return nil, nil, nil
	}
	if len(s.data.AvailableTickets) < purchase.Quantity {
		return nil, nil, nil
	}

	tickets, rest := drawTickets(s.data.AvailableTickets, purchase.Quantity)
	s.data.AvailableTickets = rest

	key := userKey(purchase.UserID)
	s.data.UserTickets[key] = append(s.data.UserTickets[key], tickets...)

	now := s.now().UTC()
	delete(s.data.Pending, purchaseID)
	purchase.Status = models.StatusApproved
	purchase.Tickets = tickets
	purchase.ResolvedAt = &now
	s.data.Approved[purchaseID] = purchase

	record, ok := s.data.Users[key]
	if !ok {
		record = &models.UserRecord{
			UserID:      purchase.UserID,
			Username:    purchase.Username,
			FullName:    purchase.FullName,
			PhoneNumber: purchase.PhoneNumber,
			FirstSeen:   now,
			History:     []models.HistoryEntry{},
		}
		s.data.Users[key] = record
	}
	record.Purchases++
	record.TotalTickets += purchase.Quantity
	record.TotalSpent += purchase.Amount
	record.LastActive = now
	if purchase.PhoneNumber != "" {
		record.PhoneNumber = purchase.PhoneNumber
	}
	record.History = append(record.History, models.HistoryEntry{
		PurchaseID: purchaseID,
		Tickets:    copyInts(tickets),
		Amount:     purchase.Amount,
		Quantity:   purchase.Quantity,
		ResolvedAt: now,
		Status:     models.StatusApproved,
	})

	if err := s.persistLocked(); err != nil {
		return nil, nil, err
	}

	result := copyPurchase(purchase)
	return copyInts(tickets), &result, nil
}

// RejectPurchase moves a pending purchase to the rejected collection. The
// pool and the user's counters are untouched; only last-active is refreshed.
// A nil result means the ID is unknown or already resolved.
func (s *Store) RejectPurchase(purchaseID string) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchase, ok := s.data.Pending[purchaseID]
	if !ok {
		return nil, nil
	}

	now := s.now().UTC()
	delete(s.data.Pending, purchaseID)
	purchase.Status = models.StatusRejected
	purchase.ResolvedAt = &now
	s.data.Rejected[purchaseID] = purchase

	if record, ok := s.data.Users[userKey(purchase.UserID)]; ok {
		record.LastActive = now
	}

	if err := s.persistLocked(); err != nil {
		return nil, err
	}

	result := copyPurchase(purchase)
	return &result, nil
}

// CancelApprovedPurchase reverses an approval: the purchase's tickets go back
// to the pool, the user's owned list and counters shrink accordingly, and a
// cancelled entry is appended to the user's history. The record itself only
// survives in that history. A nil result means the ID is not approved.
func (s *Store) CancelApprovedPurchase(purchaseID string) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchase, ok := s.data.Approved[purchaseID]
	if !ok {
		return nil, nil
	}
	delete(s.data.Approved, purchaseID)

	tickets := purchase.Tickets
	s.data.AvailableTickets = normalizeTickets(append(s.data.AvailableTickets, tickets...))

	key := userKey(purchase.UserID)
	if bucket := s.data.UserTickets[key]; len(bucket) > 0 {
		cancelled := make(map[int]struct{}, len(tickets))
		for _, t := range tickets {
			cancelled[t] = struct{}{}
		}
		remaining := bucket[:0]
		for _, t := range bucket {
			if _, ok := cancelled[t]; !ok {
				remaining = append(remaining, t)
			}
		}
		s.data.UserTickets[key] = remaining
	}

	now := s.now().UTC()
	if record, ok := s.data.Users[key]; ok {
		record.Purchases = max(0, record.Purchases-1)
		record.TotalTickets = max(0, record.TotalTickets-len(tickets))
		record.TotalSpent = max(0, record.TotalSpent-purchase.Amount)
		record.LastActive = now
		record.History = append(record.History, models.HistoryEntry{
			PurchaseID: purchaseID,
			Tickets:    copyInts(tickets),
			Amount:     purchase.Amount,
			Quantity:   purchase.Quantity,
			ResolvedAt: now,
			Status:     models.StatusCancelled,
		})
	}

	purchase.Status = models.StatusCancelled
	purchase.CancelledAt = &now

	if err := s.persistLocked(); err != nil {
		return nil, err
	}

	result := copyPurchase(purchase)
	return &result, nil
}

// ListPending returns copies of all purchases awaiting a decision. Order is
// unspecified; callers sort for presentation.
func (s *Store) ListPending() []models.Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Purchase, 0, len(s.data.Pending))
	for _, p := range s.data.Pending {
		out = append(out, copyPurchase(p))
	}
	return out
}

// ListApproved returns copies of all approved purchases.
func (s *Store) ListApproved() []models.Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Purchase, 0, len(s.data.Approved))
	for _, p := range s.data.Approved {
		out = append(out, copyPurchase(p))
	}
	return out
}

// GetUserTickets returns the user's owned ticket numbers in ascending order.
func (s *Store) GetUserTickets(userID int64) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets := copyInts(s.data.UserTickets[userKey(userID)])
	return normalizeTickets(tickets)
}

// GetUserProfile returns a copy of the user record, or nil if unknown.
func (s *Store) GetUserProfile(userID int64) *models.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.data.Users[userKey(userID)]
	if !ok {
		return nil
	}
	out := copyUserRecord(record)
	return &out
}

// ListUsers returns copies of every registered user record.
func (s *Store) ListUsers() []models.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.UserRecord, 0, len(s.data.Users))
	for _, record := range s.data.Users {
		out = append(out, copyUserRecord(record))
	}
	return out
}

// ListUserIDs returns the IDs of every registered user (broadcast audience).
func (s *Store) ListUserIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int64, 0, len(s.data.Users))
	for _, record := range s.data.Users {
		out = append(out, record.UserID)
	}
	return out
}

// drawTickets picks n tickets uniformly at random without replacement and
// returns them alongside the surviving pool (original order preserved, so a
// sorted pool stays sorted). The draw must not be predictable from purchase
// order, so every approval samples the whole current pool.
func drawTickets(available []int, n int) (picked, rest []int) {
	perm := rand.Perm(len(available))
	chosen := make(map[int]struct{}, n)
	picked = make([]int, 0, n)
	for _, idx := range perm[:n] {
		chosen[idx] = struct{}{}
		picked = append(picked, available[idx])
	}

	rest = make([]int, 0, len(available)-n)
	for i, t := range available {
		if _, ok := chosen[i]; !ok {
			rest = append(rest, t)
		}
	}
	return picked, rest
}
