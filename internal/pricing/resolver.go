package pricing

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"finance-tracker/internal/model"
)

// MinSearchLength is the shortest query forwarded to the search service.
const MinSearchLength = 2

const (
	historyWindowDays   = 2 // sessions looked at from the purchase date on
	historyLookbackDays = 4 // extra days searched backward when the first window is empty
)

// DefaultTimeout bounds every call to the remote service.
const DefaultTimeout = 10 * time.Second

// Resolver turns Service responses into Prices. It never returns transport
// errors for price lookups: failures degrade to Unavailable.
type Resolver struct {
	svc     Service
	timeout time.Duration
	log     zerolog.Logger
}

// NewResolver creates a Resolver. A non-positive timeout uses DefaultTimeout.
func NewResolver(svc Service, timeout time.Duration, log zerolog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		svc:     svc,
		timeout: timeout,
		log:     log.With().Str("component", "price_resolver").Logger(),
	}
}

// Live returns the latest price of ticker.
func (r *Resolver) Live(ctx context.Context, ticker string) Price {
	if model.IsFixedPrice(ticker) {
		return Available(FixedUnitPrice)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	v, err := r.svc.Quote(ctx, ticker)
	if err != nil {
		r.log.Warn().Err(err).Str("ticker", ticker).Msg("Could not fetch live price")
		return Unavailable
	}
	if !usable(v) {
		r.log.Warn().Str("ticker", ticker).Float64("price", v).Msg("Live price is not usable")
		return Unavailable
	}
	return Available(v)
}

// Historical returns the closing price of ticker on the given date. When the
// date has no session (weekend, holiday) the search widens a few days back
// and the last session found is used.
func (r *Resolver) Historical(ctx context.Context, ticker string, on model.Date) Price {
	if model.IsFixedPrice(ticker) {
		return Available(FixedUnitPrice)
	}

	to := on.AddDays(historyWindowDays)
	if bar, ok := r.firstBar(ctx, ticker, on, to); ok {
		return Available(bar.Close)
	}

	from := on.AddDays(-historyLookbackDays)
	if bar, ok := r.lastBar(ctx, ticker, from, to); ok {
		r.log.Debug().
			Str("ticker", ticker).
			Stringer("date", on).
			Stringer("session", bar.Date).
			Msg("Used earlier session for historical price")
		return Available(bar.Close)
	}

	r.log.Warn().Str("ticker", ticker).Stringer("date", on).Msg("No historical price found")
	return Unavailable
}

// Search looks up tickers matching query. Short queries return no matches
// without calling the service.
func (r *Resolver) Search(ctx context.Context, query string) ([]Match, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinSearchLength {
		return []Match{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	matches, err := r.svc.Search(ctx, q)
	if err != nil {
		r.log.Error().Err(err).Str("query", q).Msg("Ticker search failed")
		return nil, fmt.Errorf("%w: %w", ErrSearchUnavailable, err)
	}
	if matches == nil {
		matches = []Match{}
	}
	return matches, nil
}

func (r *Resolver) bars(ctx context.Context, ticker string, from, to model.Date) []Bar {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	bars, err := r.svc.History(ctx, ticker, from, to)
	if err != nil {
		r.log.Debug().Err(err).
			Str("ticker", ticker).
			Stringer("from", from).
			Stringer("to", to).
			Msg("History lookup failed")
		return nil
	}

	kept := bars[:0:0]
	for _, b := range bars {
		if b.Date.Before(from) || !b.Date.Before(to) || !usable(b.Close) {
			continue
		}
		kept = append(kept, b)
	}
	slices.SortStableFunc(kept, func(a, b Bar) int { return a.Date.Compare(b.Date) })
	return kept
}

func (r *Resolver) firstBar(ctx context.Context, ticker string, from, to model.Date) (Bar, bool) {
	bars := r.bars(ctx, ticker, from, to)
	if len(bars) == 0 {
		return Bar{}, false
	}
	return bars[0], true
}

func (r *Resolver) lastBar(ctx context.Context, ticker string, from, to model.Date) (Bar, bool) {
	bars := r.bars(ctx, ticker, from, to)
	if len(bars) == 0 {
		return Bar{}, false
	}
	return bars[len(bars)-1], true
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
