package ledger

import (
	"slices"

	"github.com/shopspring/decimal"

	"finance-tracker/internal/model"
	"finance-tracker/internal/portfolio"
)

// CategorySpend is the total outflow booked against one category.
type CategorySpend struct {
	Category string  `json:"category"`
	Color    string  `json:"color,omitempty"`
	Total    float64 `json:"total"`
}

// Dashboard is the all-time summary of the tracker.
type Dashboard struct {
	TotalIncome     float64         `json:"total_income"`
	TotalExpenses   float64         `json:"total_expenses"`
	BankBalance     float64         `json:"bank_balance"`
	PortfolioValue  float64         `json:"portfolio_value"`
	NetWorth        float64         `json:"net_worth"`
	SpendByCategory []CategorySpend `json:"spend_by_category"`
}

// Summarize reduces every transaction and valued position to the dashboard
// figures. The bank balance has no opening balance: it is income minus
// expenses.
func Summarize(txs []model.Transaction, enriched []model.EnrichedInvestment) Dashboard {
	totals := Consolidate(txs, nil, Range{}).Totals

	income := decimal.NewFromFloat(totals.Income)
	expenses := decimal.NewFromFloat(totals.Expenses)
	balance := income.Sub(expenses)
	value := decimal.NewFromFloat(portfolio.PortfolioValue(enriched))

	return Dashboard{
		TotalIncome:     totals.Income,
		TotalExpenses:   totals.Expenses,
		BankBalance:     balance.InexactFloat64(),
		PortfolioValue:  value.InexactFloat64(),
		NetWorth:        balance.Add(value).InexactFloat64(),
		SpendByCategory: SpendByCategory(txs),
	}
}

// SpendByCategory sums outflows per category, largest first.
func SpendByCategory(txs []model.Transaction) []CategorySpend {
	sums := make(map[string]decimal.Decimal)
	order := make([]string, 0)
	for _, t := range txs {
		if t.Kind.IsInflow() {
			continue
		}
		if _, seen := sums[t.Category]; !seen {
			order = append(order, t.Category)
		}
		sums[t.Category] = sums[t.Category].Add(decimal.NewFromFloat(t.Amount))
	}

	out := make([]CategorySpend, 0, len(order))
	for _, name := range order {
		cs := CategorySpend{Category: name, Total: sums[name].Abs().InexactFloat64()}
		if c, ok := model.LookupCategory(name); ok {
			cs.Color = c.Color
		}
		out = append(out, cs)
	}
	slices.SortStableFunc(out, func(a, b CategorySpend) int {
		switch {
		case a.Total > b.Total:
			return -1
		case a.Total < b.Total:
			return 1
		}
		return 0
	})
	return out
}
