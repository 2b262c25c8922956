// Package model holds the records the tracker stores and the views it derives from them.
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid record")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Kind tells whether a transaction is an inflow or an outflow.
type Kind string

const (
	Income  Kind = "Income"
	Expense Kind = "Expense"
)

// IsInflow reports whether amounts of this kind add to the balance.
// Every kind other than Income is an outflow, including unknown ones.
func (k Kind) IsInflow() bool { return k == Income }

// ParseKind accepts the enumerated kinds, ignoring case.
func ParseKind(s string) (Kind, error) {
	switch {
	case strings.EqualFold(s, string(Income)):
		return Income, nil
	case strings.EqualFold(s, string(Expense)):
		return Expense, nil
	}
	return "", invalid("unknown transaction type %q", s)
}

// AssetType is the instrument class of an investment.
type AssetType string

const (
	Stock        AssetType = "Stock"
	MutualFund   AssetType = "Mutual Fund"
	FixedDeposit AssetType = "Fixed Deposit"
	OtherAsset   AssetType = "Other"
)

// AssetTypes lists the accepted asset types.
var AssetTypes = []AssetType{Stock, MutualFund, FixedDeposit, OtherAsset}

// ParseAssetType accepts the enumerated asset types, ignoring case.
func ParseAssetType(s string) (AssetType, error) {
	for _, a := range AssetTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(a)) {
			return a, nil
		}
	}
	return "", invalid("unknown asset type %q", s)
}

// FixedPriceTicker marks instruments with no market quote; their unit price is always 1.
const FixedPriceTicker = "N/A"

// IsFixedPrice reports whether ticker denotes a fixed-price instrument.
func IsFixedPrice(ticker string) bool {
	t := strings.TrimSpace(ticker)
	return t == "" || strings.EqualFold(t, FixedPriceTicker)
}

// NormalizeTicker upper-cases a symbol and maps the blank ticker to FixedPriceTicker.
func NormalizeTicker(ticker string) string {
	if IsFixedPrice(ticker) {
		return FixedPriceTicker
	}
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Transaction is a cash movement. Amount is a magnitude; its sign comes from Kind.
type Transaction struct {
	ID          string  `json:"id"`
	Date        Date    `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Kind        Kind    `json:"type"`
	Amount      float64 `json:"amount"`
}

// SignedAmount is +Amount for income and -Amount for everything else.
func (t Transaction) SignedAmount() float64 {
	if t.Kind.IsInflow() {
		return t.Amount
	}
	return -t.Amount
}

// MaxAmount bounds every stored amount and price so that valuations and
// totals stay finite.
const MaxAmount = 1e12

// Validate checks the invariants a transaction must satisfy before it is stored.
func (t Transaction) Validate() error {
	if t.ID == "" {
		return invalid("transaction id is required")
	}
	if t.Date.IsZero() {
		return invalid("transaction date is required")
	}
	if strings.TrimSpace(t.Description) == "" {
		return invalid("transaction description is required")
	}
	if t.Kind != Income && t.Kind != Expense {
		return invalid("unknown transaction type %q", t.Kind)
	}
	if math.IsNaN(t.Amount) || t.Amount < 0 || t.Amount > MaxAmount {
		return invalid("transaction amount must be between 0 and %v, got %v", MaxAmount, t.Amount)
	}
	c, ok := LookupCategory(t.Category)
	if !ok {
		return invalid("unknown category %q", t.Category)
	}
	if c.Kind != t.Kind {
		return invalid("category %q is not a %s category", c.Name, t.Kind)
	}
	return nil
}

// Investment is a purchase of units of an instrument at a resolved price.
type Investment struct {
	ID             string    `json:"id"`
	PurchaseDate   Date      `json:"purchase_date"`
	Name           string    `json:"name"`
	Ticker         string    `json:"ticker"`
	AssetType      AssetType `json:"type"`
	AmountInvested float64   `json:"amount_invested"`
	PurchasePrice  float64   `json:"purchase_price"`
	Units          float64   `json:"units"`
}

// UnitsFor derives the number of units bought; zero when price is not positive.
func UnitsFor(amount, price float64) float64 {
	if price > 0 {
		return amount / price
	}
	return 0
}

// Validate checks the invariants an investment must satisfy before it is stored.
func (i Investment) Validate() error {
	if i.ID == "" {
		return invalid("investment id is required")
	}
	if i.PurchaseDate.IsZero() {
		return invalid("purchase date is required")
	}
	if strings.TrimSpace(i.Name) == "" {
		return invalid("investment name is required")
	}
	if _, err := ParseAssetType(string(i.AssetType)); err != nil {
		return err
	}
	if !(i.AmountInvested > 0) || i.AmountInvested > MaxAmount {
		return invalid("amount invested must be positive and at most %v, got %v", MaxAmount, i.AmountInvested)
	}
	if !(i.PurchasePrice > 0) || i.PurchasePrice > MaxAmount {
		return invalid("purchase price must be positive and at most %v, got %v", MaxAmount, i.PurchasePrice)
	}
	if math.Abs(i.Units*i.PurchasePrice-i.AmountInvested) > 1e-6*math.Max(1, i.AmountInvested) {
		return invalid("units %v at price %v do not add up to %v", i.Units, i.PurchasePrice, i.AmountInvested)
	}
	return nil
}

// EnrichedInvestment is an Investment valued at the current price. It is never stored.
type EnrichedInvestment struct {
	Investment
	CurrentPrice   float64   `json:"current_price"`
	PriceAvailable bool      `json:"price_available"`
	CurrentValue   float64   `json:"current_value"`
	GainLoss       float64   `json:"gain_loss"`
	HoldingMonths  int       `json:"holding_months"`
	TaxStatus      TaxStatus `json:"tax_status"`

	// MarketValue is CurrentValue before rounding.
	MarketValue float64 `json:"-"`
}

// TaxStatus is the capital gains bucket a position falls into.
type TaxStatus string

const (
	LTCG             TaxStatus = "LTCG"
	STCG             TaxStatus = "STCG"
	TaxNotApplicable TaxStatus = "N/A"
)
