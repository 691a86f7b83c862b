// Package export renders read-only projections of the ticket ledger.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"lottery-bot/internal/models"
)

const sheetName = "Chiptalar"

var headers = []string{
	"Purchase ID",
	"Foydalanuvchi",
	"Username",
	"Telefon",
	"Chipta soni",
	"Chipta raqamlari",
	"To'lov (so'm)",
	"Tasdiqlangan vaqt",
}

var columnWidths = []float64{18, 22, 18, 16, 14, 28, 16, 26}

// ApprovedPurchasesWorkbook builds an xlsx report with one row per approved
// purchase. The caller owns the returned file and must Close it.
func ApprovedPurchasesWorkbook(rows []models.ExportRow) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	centerStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cell style: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}
	if err := f.SetRowHeight(sheetName, 1, 22); err != nil {
		return nil, fmt.Errorf("failed to set header height: %w", err)
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// Purchase ID, quantity, amount, and timestamp columns are centered.
	centerCols := map[int]bool{1: true, 5: true, 7: true, 8: true}

	for rowIdx, row := range rows {
		username := ""
		if row.Username != "" {
			username = "@" + row.Username
		}
		resolvedAt := ""
		if !row.ResolvedAt.IsZero() {
			resolvedAt = row.ResolvedAt.Format("2006-01-02 15:04:05")
		}

		values := []interface{}{
			row.PurchaseID,
			row.FullName,
			username,
			row.PhoneNumber,
			row.Quantity,
			formatTickets(row.Tickets),
			row.Amount,
			resolvedAt,
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
			if centerCols[colIdx+1] {
				if err := f.SetCellStyle(sheetName, cell, cell, centerStyle); err != nil {
					return nil, fmt.Errorf("failed to style cell: %w", err)
				}
			}
		}
	}

	return f, nil
}

func formatTickets(tickets []int) string {
	sorted := make([]int, len(tickets))
	copy(sorted, tickets)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, t := range sorted {
		parts[i] = fmt.Sprintf("%d", t)
	}
	return strings.Join(parts, ", ")
}
