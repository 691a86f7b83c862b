package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lottery-bot/internal/models"
)

func newTestStore(t *testing.T, totalTickets int) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store.json")
	store, err := New(path, totalTickets, "8600 0000 0000 0000")
	require.NoError(t, err)
	return store
}

func createPurchase(t *testing.T, s *Store, userID int64, quantity int, price int64) string {
	t.Helper()

	id, err := s.CreatePendingPurchase(userID, "tester", "Test User", "+998901234567",
		quantity, price, "receipt-file", models.ReceiptPhoto)
	require.NoError(t, err)
	return id
}

// requireConservation asserts that the pool plus all approved tickets cover
// the full range exactly once.
func requireConservation(t *testing.T, s *Store) {
	t.Helper()

	seen := make(map[int]string)
	for _, ticket := range s.ListAvailableTickets() {
		require.NotContains(t, seen, ticket, "ticket %d duplicated in pool", ticket)
		seen[ticket] = "pool"
	}
	for _, purchase := range s.ListApproved() {
		for _, ticket := range purchase.Tickets {
			owner, dup := seen[ticket]
			require.False(t, dup, "ticket %d in both %s and purchase %s", ticket, owner, purchase.ID)
			seen[ticket] = purchase.ID
		}
	}

	require.Len(t, seen, s.TotalTickets())
	for ticket := 1; ticket <= s.TotalTickets(); ticket++ {
		require.Contains(t, seen, ticket)
	}
}

func TestApprovePurchaseAssignsRequestedQuantity(t *testing.T) {
	store := newTestStore(t, 20)

	id := createPurchase(t, store, 1, 5, 1000)
	tickets, purchase, err := store.ApprovePurchase(id)
	require.NoError(t, err)
	require.NotNil(t, purchase)
	require.Len(t, tickets, 5)
	require.Equal(t, models.StatusApproved, purchase.Status)
	require.NotNil(t, purchase.ResolvedAt)
	require.Equal(t, int64(5000), purchase.Amount)
	require.Equal(t, 15, store.RemainingTickets())
	require.False(t, store.IsPending(id))

	for _, ticket := range tickets {
		require.GreaterOrEqual(t, ticket, 1)
		require.LessOrEqual(t, ticket, 20)
	}
	requireConservation(t, store)
}

func TestApproveUnknownPurchaseIsEmpty(t *testing.T) {
	store := newTestStore(t, 5)

	tickets, purchase, err := store.ApprovePurchase("no-such-id")
	require.NoError(t, err)
	require.Nil(t, purchase)
	require.Empty(t, tickets)
	require.Equal(t, 5, store.RemainingTickets())
}

func TestApproveTwiceIsEmptySecondTime(t *testing.T) {
	store := newTestStore(t, 10)
	id := createPurchase(t, store, 1, 2, 100)

	_, first, err := store.ApprovePurchase(id)
	require.NoError(t, err)
	require.NotNil(t, first)

	_, second, err := store.ApprovePurchase(id)
	require.NoError(t, err)
	require.Nil(t, second)
	require.Equal(t, 8, store.RemainingTickets())
}

func TestShortageScenario(t *testing.T) {
	// Pool of 3 at price 100: A and B both want 2. Only one can win.
	store := newTestStore(t, 3)

	purchaseA := createPurchase(t, store, 1, 2, 100)
	purchaseB := createPurchase(t, store, 2, 2, 100)

	ticketsA, approvedA, err := store.ApprovePurchase(purchaseA)
	require.NoError(t, err)
	require.NotNil(t, approvedA)
	require.Len(t, ticketsA, 2)
	require.Equal(t, 1, store.RemainingTickets())

	// Not enough left for B: it must stay pending and the pool untouched.
	ticketsB, approvedB, err := store.ApprovePurchase(purchaseB)
	require.NoError(t, err)
	require.Nil(t, approvedB)
	require.Empty(t, ticketsB)
	require.True(t, store.IsPending(purchaseB))
	require.Equal(t, 1, store.RemainingTickets())
	requireConservation(t, store)

	rejected, err := store.RejectPurchase(purchaseB)
	require.NoError(t, err)
	require.NotNil(t, rejected)
	require.Equal(t, models.StatusRejected, rejected.Status)
	require.Equal(t, 1, store.RemainingTickets())

	userBefore := store.GetUserProfile(1)
	require.Equal(t, 2, userBefore.TotalTickets)
	require.Equal(t, int64(200), userBefore.TotalSpent)

	cancelled, err := store.CancelApprovedPurchase(purchaseA)
	require.NoError(t, err)
	require.NotNil(t, cancelled)
	require.Equal(t, models.StatusCancelled, cancelled.Status)
	require.Equal(t, 3, store.RemainingTickets())
	require.Empty(t, store.GetUserTickets(1))

	userAfter := store.GetUserProfile(1)
	require.Equal(t, 0, userAfter.TotalTickets)
	require.Equal(t, int64(0), userAfter.TotalSpent)
	requireConservation(t, store)
}

func TestRejectKeepsPoolAndCounters(t *testing.T) {
	store := newTestStore(t, 10)
	require.NoError(t, store.RegisterUser(7, "seven", "User Seven", ""))

	id := createPurchase(t, store, 7, 4, 500)
	rejected, err := store.RejectPurchase(id)
	require.NoError(t, err)
	require.NotNil(t, rejected)
	require.Equal(t, 10, store.RemainingTickets())

	profile := store.GetUserProfile(7)
	require.Equal(t, 0, profile.Purchases)
	require.Equal(t, 0, profile.TotalTickets)
	require.Equal(t, int64(0), profile.TotalSpent)

	// Second rejection reports already-resolved.
	again, err := store.RejectPurchase(id)
	require.NoError(t, err)
	require.Nil(t, again)
}

func TestCancelReturnsExactTickets(t *testing.T) {
	store := newTestStore(t, 10)

	keepID := createPurchase(t, store, 1, 3, 100)
	dropID := createPurchase(t, store, 1, 4, 100)

	keptTickets, _, err := store.ApprovePurchase(keepID)
	require.NoError(t, err)
	droppedTickets, _, err := store.ApprovePurchase(dropID)
	require.NoError(t, err)
	require.Equal(t, 3, store.RemainingTickets())

	cancelled, err := store.CancelApprovedPurchase(dropID)
	require.NoError(t, err)
	require.NotNil(t, cancelled)
	require.ElementsMatch(t, droppedTickets, cancelled.Tickets)

	// The user keeps exactly the surviving purchase's tickets.
	require.ElementsMatch(t, keptTickets, store.GetUserTickets(1))
	require.Equal(t, 7, store.RemainingTickets())
	for _, ticket := range droppedTickets {
		require.Contains(t, store.ListAvailableTickets(), ticket)
	}
	requireConservation(t, store)

	// Cancelling twice is a no-op.
	again, err := store.CancelApprovedPurchase(dropID)
	require.NoError(t, err)
	require.Nil(t, again)
	require.Equal(t, 7, store.RemainingTickets())
}

func TestCancelAppendsHistoryEntry(t *testing.T) {
	store := newTestStore(t, 10)

	id := createPurchase(t, store, 3, 2, 250)
	_, _, err := store.ApprovePurchase(id)
	require.NoError(t, err)

	_, err = store.CancelApprovedPurchase(id)
	require.NoError(t, err)

	profile := store.GetUserProfile(3)
	require.Len(t, profile.History, 2)
	require.Equal(t, models.StatusApproved, profile.History[0].Status)
	require.Equal(t, models.StatusCancelled, profile.History[1].Status)
	require.Equal(t, id, profile.History[1].PurchaseID)
	require.Empty(t, store.ListApproved())
}

func TestGetUserTicketsSortedUnion(t *testing.T) {
	store := newTestStore(t, 30)

	var all []int
	for i := 0; i < 3; i++ {
		id := createPurchase(t, store, 9, 4, 100)
		tickets, purchase, err := store.ApprovePurchase(id)
		require.NoError(t, err)
		require.NotNil(t, purchase)
		all = append(all, tickets...)
	}

	owned := store.GetUserTickets(9)
	require.ElementsMatch(t, all, owned)
	for i := 1; i < len(owned); i++ {
		require.Less(t, owned[i-1], owned[i], "tickets must be ascending")
	}
}

func TestRegisterUserUpsert(t *testing.T) {
	store := newTestStore(t, 5)

	require.NoError(t, store.RegisterUser(42, "old", "Old Name", "+998900000001"))
	first := store.GetUserProfile(42)
	require.NotNil(t, first)

	// Empty phone must not clobber the stored one.
	require.NoError(t, store.RegisterUser(42, "new", "New Name", ""))
	updated := store.GetUserProfile(42)
	require.Equal(t, "new", updated.Username)
	require.Equal(t, "New Name", updated.FullName)
	require.Equal(t, "+998900000001", updated.PhoneNumber)
	require.Equal(t, first.FirstSeen, updated.FirstSeen)

	require.NoError(t, store.RegisterUser(42, "new", "New Name", "+998900000002"))
	require.Equal(t, "+998900000002", store.GetUserProfile(42).PhoneNumber)

	require.Len(t, store.ListUserIDs(), 1)

	users := store.ListUsers()
	require.Len(t, users, 1)
	require.Equal(t, int64(42), users[0].UserID)
	require.Equal(t, "New Name", users[0].FullName)
}

func TestCreatePendingDoesNotTouchPool(t *testing.T) {
	store := newTestStore(t, 4)

	// Over-subscription at creation time is allowed; the pool is only
	// consumed at approval.
	createPurchase(t, store, 1, 3, 100)
	createPurchase(t, store, 2, 3, 100)
	require.Equal(t, 4, store.RemainingTickets())
	require.Len(t, store.ListPending(), 2)
}

func TestSetAdminMessage(t *testing.T) {
	store := newTestStore(t, 5)

	id := createPurchase(t, store, 1, 1, 100)
	require.NoError(t, store.SetAdminMessage(id, 555, 42))

	pending := store.ListPending()
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].AdminMessage)
	require.Equal(t, int64(555), pending[0].AdminMessage.ChatID)
	require.Equal(t, 42, pending[0].AdminMessage.MessageID)

	// Unknown IDs are ignored.
	require.NoError(t, store.SetAdminMessage("missing", 1, 1))
}

func TestReturnedCopiesAreDetached(t *testing.T) {
	store := newTestStore(t, 10)

	id := createPurchase(t, store, 1, 2, 100)
	tickets, purchase, err := store.ApprovePurchase(id)
	require.NoError(t, err)

	// Mutating returned values must not leak into the store.
	tickets[0] = -1
	purchase.Tickets[1] = -2
	for _, p := range store.ListApproved() {
		for _, ticket := range p.Tickets {
			require.Greater(t, ticket, 0)
		}
	}
	requireConservation(t, store)
}
