package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TickerLister lists the market tickers currently held.
type TickerLister interface {
	Tickers(ctx context.Context) ([]string, error)
}

// Refresher fetches a fresh quote and stores it in the cache.
type Refresher interface {
	Refresh(ctx context.Context, ticker string) (float64, error)
}

// QuoteWarmerJob refreshes cached quotes for every held ticker so reads
// between runs are served from the cache.
type QuoteWarmerJob struct {
	tickers TickerLister
	quotes  Refresher
	timeout time.Duration
	log     zerolog.Logger
}

// NewQuoteWarmerJob creates the job. timeout bounds a whole run.
func NewQuoteWarmerJob(tickers TickerLister, quotes Refresher, timeout time.Duration, log zerolog.Logger) *QuoteWarmerJob {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &QuoteWarmerJob{
		tickers: tickers,
		quotes:  quotes,
		timeout: timeout,
		log:     log.With().Str("job", "quote_warmer").Logger(),
	}
}

// Name returns the job name
func (j *QuoteWarmerJob) Name() string {
	return "quote_warmer"
}

// Run refreshes every held ticker. A failed ticker is logged and skipped;
// the run fails only when the holdings cannot be listed or every refresh failed.
func (j *QuoteWarmerJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	tickers, err := j.tickers.Tickers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list held tickers: %w", err)
	}
	if len(tickers) == 0 {
		return nil
	}

	start := time.Now()
	failed := 0
	for _, ticker := range tickers {
		if _, err := j.quotes.Refresh(ctx, ticker); err != nil {
			failed++
			j.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to refresh quote")
		}
	}

	j.log.Info().
		Int("tickers", len(tickers)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Quotes refreshed")

	if failed == len(tickers) {
		return fmt.Errorf("all %d quote refreshes failed", failed)
	}
	return nil
}
