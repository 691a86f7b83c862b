package storage

import (
	"sort"
	"time"

	"lottery-bot/internal/models"
)

// GetSummary returns the compact ledger counters for the admin dashboard.
func (s *Store) GetSummary() models.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := len(s.data.AvailableTickets)
	var revenue int64
	for _, p := range s.data.Approved {
		revenue += p.Amount
	}

	return models.Summary{
		Total:        s.totalTickets,
		Sold:         s.totalTickets - remaining,
		Remaining:    remaining,
		PendingCount: len(s.data.Pending),
		Revenue:      revenue,
	}
}

// GetDetailedStats computes the full analytics snapshot in a single pass
// under the lock, so no cross-field read can observe a half-applied
// mutation.
func (s *Store) GetDetailedStats() models.DetailedStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	cutoff := now.Add(-24 * time.Hour)

	stats := models.DetailedStats{
		TotalTickets:     s.totalTickets,
		RemainingTickets: len(s.data.AvailableTickets),
		PendingCount:     len(s.data.Pending),
		ApprovedCount:    len(s.data.Approved),
		RejectedCount:    len(s.data.Rejected),
		TotalUsers:       len(s.data.Users),
	}

	var top []models.TopUser
	for _, record := range s.data.Users {
		if !record.LastActive.IsZero() && !record.LastActive.Before(cutoff) {
			stats.ActiveUsers24h++
		}
		if !record.FirstSeen.IsZero() && !record.FirstSeen.Before(cutoff) {
			stats.NewUsers24h++
		}
		stats.TicketsSold += record.TotalTickets
		stats.TotalRevenue += record.TotalSpent
		stats.TotalPurchases += record.Purchases

		if record.TotalTickets > 0 {
			top = append(top, models.TopUser{
				UserID:   record.UserID,
				FullName: record.FullName,
				Username: record.Username,
				Tickets:  record.TotalTickets,
				Spent:    record.TotalSpent,
			})
		}
	}

	for _, p := range s.data.Pending {
		stats.PendingAmount += p.Amount
	}

	sort.Slice(top, func(i, j int) bool {
		if top[i].Tickets != top[j].Tickets {
			return top[i].Tickets > top[j].Tickets
		}
		return top[i].Spent > top[j].Spent
	})
	if len(top) > 5 {
		top = top[:5]
	}
	stats.TopUsers = top

	if stats.TotalUsers > 0 {
		stats.AvgTicketsPerUser = float64(stats.TicketsSold) / float64(stats.TotalUsers)
		stats.AvgSpendPerUser = float64(stats.TotalRevenue) / float64(stats.TotalUsers)
	}

	return stats
}

// ExportRows projects every approved purchase into a report row. Read-only;
// the Excel writer lives outside the store.
func (s *Store) ExportRows() []models.ExportRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]models.ExportRow, 0, len(s.data.Approved))
	for _, p := range s.data.Approved {
		row := models.ExportRow{
			PurchaseID:  p.ID,
			FullName:    p.FullName,
			Username:    p.Username,
			PhoneNumber: p.PhoneNumber,
			Quantity:    p.Quantity,
			Tickets:     copyInts(p.Tickets),
			Amount:      p.Amount,
		}
		if p.ResolvedAt != nil {
			row.ResolvedAt = *p.ResolvedAt
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].ResolvedAt.Before(rows[j].ResolvedAt)
	})
	return rows
}
