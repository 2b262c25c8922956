// Package store persists transactions and investments.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"finance-tracker/internal/model"
)

// Store keeps the raw records. Listings preserve insertion order.
type Store interface {
	Transactions(ctx context.Context) ([]model.Transaction, error)
	AddTransaction(ctx context.Context, t model.Transaction) error
	// DeleteTransaction reports whether a record with id existed.
	DeleteTransaction(ctx context.Context, id string) (bool, error)

	Investments(ctx context.Context) ([]model.Investment, error)
	AddInvestment(ctx context.Context, inv model.Investment) error
	// DeleteInvestment reports whether a record with id existed.
	DeleteInvestment(ctx context.Context, id string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverJSON     = "json"
	DriverPostgres = "postgres"
)

// Options selects and configures a Store implementation.
type Options struct {
	Driver      string
	DataDir     string
	DatabaseURL string
	// ConnectRetries and RetryDelay bound how long Open waits for the database.
	ConnectRetries int
	RetryDelay     time.Duration
}

// Open returns the Store selected by opts.Driver.
func Open(ctx context.Context, opts Options, log zerolog.Logger) (Store, error) {
	switch opts.Driver {
	case "", DriverJSON:
		return OpenJSON(opts.DataDir, log)
	case DriverPostgres:
		pg, err := OpenPostgres(ctx, opts.DatabaseURL, opts.ConnectRetries, opts.RetryDelay, log)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		return pg, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
}
