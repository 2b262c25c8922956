// Package pricing resolves instrument prices against a remote quote service.
package pricing

import (
	"context"
	"errors"

	"finance-tracker/internal/model"
)

// ErrSearchUnavailable is returned when the remote ticker search fails, as
// opposed to succeeding with no matches.
var ErrSearchUnavailable = errors.New("ticker search unavailable")

// FixedUnitPrice is the price of one unit of a fixed-price instrument.
const FixedUnitPrice = 1.0

// Price is the outcome of a price lookup. OK is false when no price could be
// resolved; Value is then zero and must not be read as "worthless".
type Price struct {
	Value float64
	OK    bool
}

// Unavailable is the zero Price.
var Unavailable = Price{}

// Available wraps a resolved price.
func Available(v float64) Price { return Price{Value: v, OK: true} }

// Bar is the closing price of one trading session.
type Bar struct {
	Date  model.Date `json:"date"`
	Close float64    `json:"close"`
}

// Match is a ticker search suggestion.
type Match struct {
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	Exchange string `json:"exchange,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Service is the remote quote provider.
type Service interface {
	// Quote returns the most recent trading price of ticker.
	Quote(ctx context.Context, ticker string) (float64, error)
	// History returns daily bars for sessions in [from, to), oldest first.
	History(ctx context.Context, ticker string, from, to model.Date) ([]Bar, error)
	// Search returns instruments matching a free-text query.
	Search(ctx context.Context, query string) ([]Match, error)
}
