// Package export renders the tracker's records as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"finance-tracker/internal/model"
)

// Sheet names of the exported workbook.
const (
	TransactionsSheet = "Transactions"
	InvestmentsSheet  = "Investment_Portfolio"
)

// Filename is the attachment name used for downloads.
const Filename = "financial_report.xlsx"

// ContentType is the MIME type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var transactionHeader = []any{"id", "date", "description", "category", "type", "amount"}

var investmentHeader = []any{
	"id", "purchase_date", "name", "ticker", "type", "amount_invested", "purchase_price", "units",
	"current_price", "price_available", "current_value", "gain_loss", "holding_months", "tax_status",
}

// WriteWorkbook writes a workbook with exactly two sheets: the raw
// transactions and the valued investment portfolio.
func WriteWorkbook(w io.Writer, txs []model.Transaction, investments []model.EnrichedInvestment) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), TransactionsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(InvestmentsSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	txRows := make([][]any, 0, len(txs))
	for _, t := range txs {
		txRows = append(txRows, []any{t.ID, t.Date.String(), t.Description, t.Category, string(t.Kind), t.Amount})
	}
	if err := writeSheet(f, TransactionsSheet, header, transactionHeader, txRows); err != nil {
		return err
	}

	invRows := make([][]any, 0, len(investments))
	for _, inv := range investments {
		invRows = append(invRows, []any{
			inv.ID, inv.PurchaseDate.String(), inv.Name, inv.Ticker, string(inv.AssetType),
			inv.AmountInvested, inv.PurchasePrice, inv.Units,
			inv.CurrentPrice, inv.PriceAvailable, inv.CurrentValue, inv.GainLoss,
			inv.HoldingMonths, string(inv.TaxStatus),
		})
	}
	if err := writeSheet(f, InvestmentsSheet, header, investmentHeader, invRows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, 16); err != nil {
		return fmt.Errorf("failed to size %s columns: %w", sheet, err)
	}
	return nil
}
