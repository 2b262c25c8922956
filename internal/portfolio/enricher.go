// Package portfolio values investment positions at current market prices.
package portfolio

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"finance-tracker/internal/model"
	"finance-tracker/internal/pricing"
	"finance-tracker/internal/tax"
)

// DefaultConcurrency caps parallel live price lookups in EnrichAll.
const DefaultConcurrency = 8

// LivePricer resolves the current price of a ticker.
type LivePricer interface {
	Live(ctx context.Context, ticker string) pricing.Price
}

// Enricher derives valuation and tax fields for investments. It holds no
// mutable state and may be shared between requests.
type Enricher struct {
	prices      LivePricer
	now         func() time.Time
	concurrency int
	log         zerolog.Logger
}

// Option customizes an Enricher.
type Option func(*Enricher)

// WithClock sets the time source used for holding periods.
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) { e.now = now }
}

// WithConcurrency sets how many price lookups EnrichAll runs at once.
func WithConcurrency(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEnricher creates an Enricher using prices for valuation.
func NewEnricher(prices LivePricer, log zerolog.Logger, opts ...Option) *Enricher {
	e := &Enricher{
		prices:      prices,
		now:         time.Now,
		concurrency: DefaultConcurrency,
		log:         log.With().Str("component", "enricher").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich values a single investment at its current price.
func (e *Enricher) Enrich(ctx context.Context, inv model.Investment) model.EnrichedInvestment {
	return enrich(inv, e.prices.Live(ctx, inv.Ticker), e.now())
}

// EnrichAll values every investment, looking prices up in parallel. The
// result keeps the input order. A failed lookup only affects its own position.
func (e *Enricher) EnrichAll(ctx context.Context, invs []model.Investment) []model.EnrichedInvestment {
	out := make([]model.EnrichedInvestment, len(invs))
	now := e.now()

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, inv := range invs {
		i, inv := i, inv
		g.Go(func() error {
			out[i] = enrich(inv, e.prices.Live(ctx, inv.Ticker), now)
			return nil
		})
	}
	_ = g.Wait()

	e.log.Debug().Int("count", len(out)).Msg("Enriched investments")
	return out
}

func enrich(inv model.Investment, price pricing.Price, now time.Time) model.EnrichedInvestment {
	var currentValue float64
	if price.OK {
		currentValue = inv.Units * price.Value
		// A value that does not fit a float is treated as an unknown price.
		if !finite(currentValue) || !finite(currentValue-inv.AmountInvested) {
			price, currentValue = pricing.Unavailable, 0
		}
	}
	gainLoss := currentValue - inv.AmountInvested
	months := tax.HoldingMonths(inv.PurchaseDate, now)

	return model.EnrichedInvestment{
		Investment:     inv,
		CurrentPrice:   Round(price.Value),
		PriceAvailable: price.OK,
		CurrentValue:   Round(currentValue),
		GainLoss:       Round(gainLoss),
		HoldingMonths:  months,
		TaxStatus:      tax.Classify(inv.AssetType, months),
		MarketValue:    currentValue,
	}
}

// Round rounds a monetary amount to cents, half away from zero. NaN and
// infinities round to zero.
func Round(v float64) float64 {
	if !finite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// PortfolioValue sums unrounded market values and rounds the total once.
// Positions without a live price count as zero.
func PortfolioValue(enriched []model.EnrichedInvestment) float64 {
	total := decimal.Zero
	for _, inv := range enriched {
		if !inv.PriceAvailable || !finite(inv.MarketValue) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(inv.MarketValue))
	}
	return Round(total.InexactFloat64())
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
