package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"finance-tracker/internal/model"
)

func TestWriteWorkbook(t *testing.T) {
	txs := []model.Transaction{{
		ID:          "t1",
		Date:        model.MustParseDate("2024-01-01"),
		Description: "Monthly Salary",
		Category:    "Salary",
		Kind:        model.Income,
		Amount:      5000,
	}}
	invs := []model.EnrichedInvestment{{
		Investment: model.Investment{
			ID:             "i1",
			PurchaseDate:   model.MustParseDate("2023-01-10"),
			Name:           "Apple",
			Ticker:         "AAPL",
			AssetType:      model.Stock,
			AmountInvested: 1000,
			PurchasePrice:  200,
			Units:          5,
		},
		CurrentPrice:   250,
		PriceAvailable: true,
		CurrentValue:   1250,
		GainLoss:       250,
		HoldingMonths:  15,
		TaxStatus:      model.LTCG,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, txs, invs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{TransactionsSheet, InvestmentsSheet}, f.GetSheetList())

	rows, err := f.GetRows(TransactionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"id", "date", "description", "category", "type", "amount"}, rows[0])
	assert.Equal(t, []string{"t1", "2024-01-01", "Monthly Salary", "Salary", "Income", "5000"}, rows[1])

	rows, err = f.GetRows(InvestmentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 14)
	assert.Equal(t, "i1", rows[1][0])
	assert.Equal(t, "2023-01-10", rows[1][1])
	assert.Equal(t, "AAPL", rows[1][3])
	assert.Equal(t, "1250", rows[1][10])
	assert.Equal(t, "LTCG", rows[1][13])
}

func TestWriteWorkbook_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{TransactionsSheet, InvestmentsSheet}, f.GetSheetList())
	rows, err := f.GetRows(InvestmentsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
