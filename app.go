package main

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"finance-tracker/internal/config"
	"finance-tracker/internal/portfolio"
	"finance-tracker/internal/pricing"
	"finance-tracker/internal/pricing/yahoo"
	"finance-tracker/internal/store"
	"finance-tracker/internal/tracker"
)

// app wires the store, the price stack and the tracker service together.
type app struct {
	store   store.Store
	redis   *redis.Client
	quotes  *pricing.CachedService
	tracker *tracker.Service
	log     zerolog.Logger
}

// newApp opens every dependency described by cfg. A redis outage is not
// fatal: the service runs without a cache.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	st, err := store.Open(ctx, store.Options{
		Driver:      cfg.StoreDriver,
		DataDir:     cfg.DataDir,
		DatabaseURL: cfg.DatabaseURL,
	}, log)
	if err != nil {
		return nil, err
	}

	rdb, err := newRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis, continuing without cache")
		rdb = nil
	}

	client := yahoo.NewClient(yahoo.Options{
		ChartURL:    cfg.YahooChartURL,
		SearchURL:   cfg.YahooSearchURL,
		HTTPTimeout: cfg.PriceTimeout,
	}, log)

	return assemble(st, rdb, client, cfg, log), nil
}

// assemble builds the price stack and tracker on top of already opened
// dependencies.
func assemble(st store.Store, rdb *redis.Client, svc pricing.Service, cfg *config.Config, log zerolog.Logger) *app {
	quotes := pricing.NewCachedService(svc, rdb, pricing.CacheTTLs{Quote: cfg.QuoteCacheTTL}, log)
	resolver := pricing.NewResolver(quotes, cfg.PriceTimeout, log)
	enricher := portfolio.NewEnricher(resolver, log, portfolio.WithConcurrency(cfg.EnrichConcurrency))

	return &app{
		store:   st,
		redis:   rdb,
		quotes:  quotes,
		tracker: tracker.New(st, resolver, enricher, nil, log),
		log:     log,
	}
}

func (a *app) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
