package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lottery-bot/internal/models"
)

func TestApprovedPurchasesWorkbook(t *testing.T) {
	resolved := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	rows := []models.ExportRow{
		{
			PurchaseID:  "p-1",
			FullName:    "Buyer One",
			Username:    "buyer1",
			PhoneNumber: "+998901112233",
			Quantity:    3,
			Tickets:     []int{17, 4, 9},
			Amount:      150000,
			ResolvedAt:  resolved,
		},
		{
			PurchaseID: "p-2",
			FullName:   "Buyer Two",
			Quantity:   1,
			Tickets:    []int{2},
			Amount:     50000,
		},
	}

	f, err := ApprovedPurchasesWorkbook(rows)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	require.Equal(t, []string{"Chiptalar"}, f.GetSheetList())

	header, err := f.GetCellValue("Chiptalar", "A1")
	require.NoError(t, err)
	require.Equal(t, "Purchase ID", header)

	name, err := f.GetCellValue("Chiptalar", "B2")
	require.NoError(t, err)
	require.Equal(t, "Buyer One", name)

	username, err := f.GetCellValue("Chiptalar", "C2")
	require.NoError(t, err)
	require.Equal(t, "@buyer1", username)

	// Ticket numbers come out sorted regardless of input order.
	tickets, err := f.GetCellValue("Chiptalar", "F2")
	require.NoError(t, err)
	require.Equal(t, "4, 9, 17", tickets)

	resolvedAt, err := f.GetCellValue("Chiptalar", "H2")
	require.NoError(t, err)
	require.Equal(t, "2025-03-01 12:30:00", resolvedAt)

	// Missing username and resolution time render as blanks.
	username, err = f.GetCellValue("Chiptalar", "C3")
	require.NoError(t, err)
	require.Empty(t, username)
	resolvedAt, err = f.GetCellValue("Chiptalar", "H3")
	require.NoError(t, err)
	require.Empty(t, resolvedAt)
}

func TestApprovedPurchasesWorkbookEmpty(t *testing.T) {
	f, err := ApprovedPurchasesWorkbook(nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	// Header row only; the first data row is blank.
	value, err := f.GetCellValue("Chiptalar", "A2")
	require.NoError(t, err)
	require.Empty(t, value)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NotZero(t, buf.Len())
}
