package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetSummary(t *testing.T) {
	store := newTestStore(t, 20)

	soldID := createPurchase(t, store, 1, 6, 1000)
	_, _, err := store.ApprovePurchase(soldID)
	require.NoError(t, err)
	createPurchase(t, store, 2, 3, 1000)

	summary := store.GetSummary()
	require.Equal(t, 20, summary.Total)
	require.Equal(t, 6, summary.Sold)
	require.Equal(t, 14, summary.Remaining)
	require.Equal(t, 1, summary.PendingCount)
	require.Equal(t, int64(6000), summary.Revenue)
}

func TestGetDetailedStatsAggregates(t *testing.T) {
	store := newTestStore(t, 100)

	// Six buyers so the leaderboard has to trim to five. Equal ticket counts
	// for users 5 and 6 are broken by spend.
	quantities := map[int64]int{1: 6, 2: 5, 3: 4, 4: 3, 5: 2, 6: 2}
	prices := map[int64]int64{1: 100, 2: 100, 3: 100, 4: 100, 5: 100, 6: 150}
	for userID, qty := range quantities {
		id := createPurchase(t, store, userID, qty, prices[userID])
		_, purchase, err := store.ApprovePurchase(id)
		require.NoError(t, err)
		require.NotNil(t, purchase)
	}

	pendingID := createPurchase(t, store, 1, 2, 100)
	require.True(t, store.IsPending(pendingID))

	rejectID := createPurchase(t, store, 2, 1, 100)
	_, rejectErr := store.RejectPurchase(rejectID)
	require.NoError(t, rejectErr)

	stats := store.GetDetailedStats()
	require.Equal(t, 100, stats.TotalTickets)
	require.Equal(t, 78, stats.RemainingTickets)
	require.Equal(t, 22, stats.TicketsSold)
	require.Equal(t, int64(2300), stats.TotalRevenue)
	require.Equal(t, 1, stats.PendingCount)
	require.Equal(t, int64(200), stats.PendingAmount)
	require.Equal(t, 6, stats.ApprovedCount)
	require.Equal(t, 1, stats.RejectedCount)
	require.Equal(t, 6, stats.TotalUsers)
	require.Equal(t, 6, stats.TotalPurchases)
	require.InDelta(t, 22.0/6.0, stats.AvgTicketsPerUser, 1e-9)
	require.InDelta(t, 2300.0/6.0, stats.AvgSpendPerUser, 1e-9)

	require.Len(t, stats.TopUsers, 5)
	require.Equal(t, int64(1), stats.TopUsers[0].UserID)
	require.Equal(t, int64(2), stats.TopUsers[1].UserID)
	require.Equal(t, int64(3), stats.TopUsers[2].UserID)
	require.Equal(t, int64(4), stats.TopUsers[3].UserID)
	// Tie on tickets: user 6 spent more than user 5.
	require.Equal(t, int64(6), stats.TopUsers[4].UserID)
}

func TestGetDetailedStatsActivityWindows(t *testing.T) {
	store := newTestStore(t, 10)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	require.NoError(t, store.RegisterUser(1, "old", "Old User", ""))

	store.now = func() time.Time { return base.Add(30 * time.Hour) }
	require.NoError(t, store.RegisterUser(2, "fresh", "Fresh User", ""))

	stats := store.GetDetailedStats()
	require.Equal(t, 2, stats.TotalUsers)
	require.Equal(t, 1, stats.ActiveUsers24h)
	require.Equal(t, 1, stats.NewUsers24h)

	// Old user comes back: active again, still not new.
	require.NoError(t, store.RegisterUser(1, "old", "Old User", ""))
	stats = store.GetDetailedStats()
	require.Equal(t, 2, stats.ActiveUsers24h)
	require.Equal(t, 1, stats.NewUsers24h)
}

func TestExportRowsSortedByResolution(t *testing.T) {
	store := newTestStore(t, 20)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		store.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		id := createPurchase(t, store, int64(i+1), 2, 100)
		_, purchase, err := store.ApprovePurchase(id)
		require.NoError(t, err)
		require.NotNil(t, purchase)
	}

	rows := store.ExportRows()
	require.Len(t, rows, 3)
	for i := 1; i < len(rows); i++ {
		require.False(t, rows[i].ResolvedAt.Before(rows[i-1].ResolvedAt))
	}
	require.Equal(t, int64(200), rows[0].Amount)
	require.Equal(t, "Test User", rows[0].FullName)
	require.Equal(t, 2, rows[0].Quantity)
	require.Len(t, rows[0].Tickets, 2)
}
