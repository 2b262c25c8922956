// Package ledger merges transactions and investment purchases into a single
// chronological activity feed and reduces it to totals.
package ledger

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"finance-tracker/internal/model"
)

// ErrInvalidRange is wrapped when a date range bound cannot be used.
var ErrInvalidRange = errors.New("invalid date range")

// Range limits records to dates between Start and End, both inclusive. A nil
// bound leaves that side open.
type Range struct {
	Start *model.Date
	End   *model.Date
}

// ParseRange builds a Range from optional ISO date strings. An empty string
// is an absent bound; anything else must parse.
func ParseRange(start, end string) (Range, error) {
	var r Range
	if s := strings.TrimSpace(start); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			return Range{}, fmt.Errorf("%w: start: %w", ErrInvalidRange, err)
		}
		r.Start = &d
	}
	if s := strings.TrimSpace(end); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			return Range{}, fmt.Errorf("%w: end: %w", ErrInvalidRange, err)
		}
		r.End = &d
	}
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return Range{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, r.Start, r.End)
	}
	return r, nil
}

// Contains reports whether d falls inside the range.
func (r Range) Contains(d model.Date) bool {
	if r.Start != nil && d.Before(*r.Start) {
		return false
	}
	if r.End != nil && d.After(*r.End) {
		return false
	}
	return true
}

// Source tells which kind of record an Activity came from.
type Source string

const (
	FromTransaction Source = "transaction"
	FromInvestment  Source = "investment"
)

// Activity is a signed, normalized view of a transaction or an investment purchase.
type Activity struct {
	ID          string     `json:"id"`
	Date        model.Date `json:"date"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Type        string     `json:"type"`
	Amount      float64    `json:"amount"`
	Source      Source     `json:"source"`
}

// Totals aggregate a filtered set of records. Expenses is a positive magnitude.
type Totals struct {
	Income   float64 `json:"total_income"`
	Expenses float64 `json:"total_expenses"`
	Invested float64 `json:"total_invested"`
}

// View is the consolidated feed with totals computed over the same records.
type View struct {
	Activities []Activity `json:"activities"`
	Totals     Totals     `json:"totals"`
}

// Consolidate filters both record sets by r, merges them newest first and
// totals what was kept. Records sharing a date keep their input order,
// transactions before investments.
func Consolidate(txs []model.Transaction, invs []model.Investment, r Range) View {
	activities := make([]Activity, 0, len(txs)+len(invs))
	income, expenses, invested := decimal.Zero, decimal.Zero, decimal.Zero

	for _, t := range txs {
		if !r.Contains(t.Date) {
			continue
		}
		amount := decimal.NewFromFloat(t.Amount)
		if t.Kind.IsInflow() {
			income = income.Add(amount)
		} else {
			expenses = expenses.Add(amount)
		}
		activities = append(activities, Activity{
			ID:          t.ID,
			Date:        t.Date,
			Description: t.Description,
			Category:    t.Category,
			Type:        string(t.Kind),
			Amount:      t.SignedAmount(),
			Source:      FromTransaction,
		})
	}

	for _, inv := range invs {
		if !r.Contains(inv.PurchaseDate) {
			continue
		}
		invested = invested.Add(decimal.NewFromFloat(inv.AmountInvested))
		activities = append(activities, Activity{
			ID:          inv.ID,
			Date:        inv.PurchaseDate,
			Description: inv.Name,
			Category:    model.InvestmentCategory,
			Type:        model.InvestmentCategory,
			Amount:      -inv.AmountInvested,
			Source:      FromInvestment,
		})
	}

	slices.SortStableFunc(activities, func(a, b Activity) int {
		return b.Date.Compare(a.Date)
	})

	return View{
		Activities: activities,
		Totals: Totals{
			Income:   income.InexactFloat64(),
			Expenses: expenses.InexactFloat64(),
			Invested: invested.InexactFloat64(),
		},
	}
}
