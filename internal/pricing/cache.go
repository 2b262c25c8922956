package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"finance-tracker/internal/model"
)

// CacheTTLs sets how long each kind of response stays in redis.
type CacheTTLs struct {
	Quote   time.Duration
	History time.Duration
	Search  time.Duration
}

// DefaultCacheTTLs keeps quotes briefly; past sessions do not change.
var DefaultCacheTTLs = CacheTTLs{
	Quote:   60 * time.Second,
	History: 24 * time.Hour,
	Search:  time.Hour,
}

// CachedService is a read-through redis cache in front of a Service. A nil
// redis client turns it into a pass-through. Redis failures are logged and
// never fail a lookup; errors from the wrapped service are never cached.
type CachedService struct {
	next Service
	rdb  *redis.Client
	ttl  CacheTTLs
	log  zerolog.Logger
}

// NewCachedService wraps next. Zero TTLs take the DefaultCacheTTLs value.
func NewCachedService(next Service, rdb *redis.Client, ttl CacheTTLs, log zerolog.Logger) *CachedService {
	if ttl.Quote <= 0 {
		ttl.Quote = DefaultCacheTTLs.Quote
	}
	if ttl.History <= 0 {
		ttl.History = DefaultCacheTTLs.History
	}
	if ttl.Search <= 0 {
		ttl.Search = DefaultCacheTTLs.Search
	}
	return &CachedService{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "quote_cache").Logger(),
	}
}

func quoteKey(ticker string) string { return "quote:" + strings.ToUpper(ticker) }

func historyKey(ticker string, from, to model.Date) string {
	return fmt.Sprintf("history:%s:%s:%s", strings.ToUpper(ticker), from, to)
}

func searchKey(query string) string { return "search:" + strings.ToLower(query) }

// Quote implements Service.
func (c *CachedService) Quote(ctx context.Context, ticker string) (float64, error) {
	if c.rdb != nil {
		cached, err := c.rdb.Get(ctx, quoteKey(ticker)).Result()
		if err == nil {
			if v, err := strconv.ParseFloat(cached, 64); err == nil {
				return v, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.log.Debug().Err(err).Str("ticker", ticker).Msg("Quote cache read failed")
		}
	}
	return c.Refresh(ctx, ticker)
}

// Refresh fetches a fresh quote and stores it, skipping the cache read.
func (c *CachedService) Refresh(ctx context.Context, ticker string) (float64, error) {
	v, err := c.next.Quote(ctx, ticker)
	if err != nil {
		return 0, err
	}
	if c.rdb != nil {
		val := strconv.FormatFloat(v, 'f', -1, 64)
		if err := c.rdb.SetEx(ctx, quoteKey(ticker), val, c.ttl.Quote).Err(); err != nil {
			c.log.Debug().Err(err).Str("ticker", ticker).Msg("Quote cache write failed")
		}
	}
	return v, nil
}

// History implements Service.
func (c *CachedService) History(ctx context.Context, ticker string, from, to model.Date) ([]Bar, error) {
	key := historyKey(ticker, from, to)
	var bars []Bar
	if c.getJSON(ctx, key, &bars) {
		return bars, nil
	}
	bars, err := c.next.History(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}
	// An empty window may still fill in later (today's session), so only
	// non-empty answers are kept.
	if len(bars) > 0 {
		c.setJSON(ctx, key, bars, c.ttl.History)
	}
	return bars, nil
}

// Search implements Service.
func (c *CachedService) Search(ctx context.Context, query string) ([]Match, error) {
	key := searchKey(query)
	var matches []Match
	if c.getJSON(ctx, key, &matches) {
		return matches, nil
	}
	matches, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, matches, c.ttl.Search)
	return matches, nil
}

func (c *CachedService) getJSON(ctx context.Context, key string, v any) bool {
	if c.rdb == nil {
		return false
	}
	cached, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}
	return json.Unmarshal(cached, v) == nil
}

func (c *CachedService) setJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.SetEx(ctx, key, data, ttl).Err(); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
