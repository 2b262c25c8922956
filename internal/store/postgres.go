package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"finance-tracker/internal/model"
)

const (
	defaultConnectRetries = 60
	defaultRetryDelay     = 2 * time.Second
)

// PostgresStore keeps records in PostgreSQL through pgx's database/sql driver.
type PostgresStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NormalizeURL rewrites postgresql:// to postgres:// and defaults sslmode to disable.
func NormalizeURL(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgresql://") {
		databaseURL = "postgres://" + strings.TrimPrefix(databaseURL, "postgresql://")
	}
	if databaseURL != "" && !strings.Contains(databaseURL, "sslmode=") {
		separator := "?"
		if strings.Contains(databaseURL, "?") {
			separator = "&"
		}
		databaseURL = databaseURL + separator + "sslmode=disable"
	}
	return databaseURL
}

// OpenPostgres connects to databaseURL, pinging until the database answers
// or retries run out.
func OpenPostgres(ctx context.Context, databaseURL string, retries int, delay time.Duration, log zerolog.Logger) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
	}
	if retries <= 0 {
		retries = defaultConnectRetries
	}
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	log = log.With().Str("component", "postgres_store").Logger()

	config, err := pgx.ParseConfig(NormalizeURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	for i := 0; i < retries; i++ {
		db := stdlib.OpenDB(*config)
		err := db.PingContext(ctx)
		if err == nil {
			log.Info().Msg("Database connection established")
			return &PostgresStore{db: db, log: log}, nil
		}
		_ = db.Close()
		if i == retries-1 {
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", retries, err)
		}

		ev := log.Warn().Dur("retry_in", delay).Int("attempt", i+1).Int("max_attempts", retries)
		if i%10 == 0 || i < 5 {
			ev = ev.Err(err)
		}
		ev.Msg("Database not ready")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("failed to connect to database")
}

const transactionColumns = `t.id, t.date, t.description, COALESCE(c.name, ''), t.type, t.amount`

func (s *PostgresStore) Transactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		ORDER BY t.seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]model.Transaction, 0)
	for rows.Next() {
		var (
			t    model.Transaction
			kind string
		)
		if err := rows.Scan(&t.ID, &t.Date, &t.Description, &t.Category, &kind, &t.Amount); err != nil {
			s.log.Warn().Err(err).Msg("Skipping malformed transaction row")
			continue
		}
		t.Kind = storedKind(kind)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return txs, nil
}

func (s *PostgresStore) AddTransaction(ctx context.Context, t model.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, date, description, amount, category_id, type)
		VALUES ($1, $2, $3, $4, (SELECT id FROM categories WHERE name = $5 ORDER BY id LIMIT 1), $6)
	`, t.ID, t.Date, t.Description, t.Amount, t.Category, string(t.Kind))
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "transactions", id)
}

func (s *PostgresStore) Investments(ctx context.Context) ([]model.Investment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, purchase_date, name, ticker, asset_type, amount_invested, purchase_price, units
		FROM investments
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	defer rows.Close()

	invs := make([]model.Investment, 0)
	for rows.Next() {
		var (
			inv   model.Investment
			asset string
		)
		err := rows.Scan(&inv.ID, &inv.PurchaseDate, &inv.Name, &inv.Ticker, &asset,
			&inv.AmountInvested, &inv.PurchasePrice, &inv.Units)
		if err != nil {
			s.log.Warn().Err(err).Msg("Skipping malformed investment row")
			continue
		}
		inv.AssetType = model.AssetType(asset)
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read investments: %w", err)
	}
	return invs, nil
}

func (s *PostgresStore) AddInvestment(ctx context.Context, inv model.Investment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO investments (id, purchase_date, name, ticker, asset_type, amount_invested, purchase_price, units)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, inv.ID, inv.PurchaseDate, inv.Name, inv.Ticker, string(inv.AssetType),
		inv.AmountInvested, inv.PurchasePrice, inv.Units)
	if err != nil {
		return fmt.Errorf("failed to insert investment: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteInvestment(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "investments", id)
}

func (s *PostgresStore) deleteByID(ctx context.Context, table, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return n > 0, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// storedKind maps legacy lower-case kinds onto the enumerated ones and keeps
// anything else verbatim, which reductions then treat as an outflow.
func storedKind(raw string) model.Kind {
	if k, err := model.ParseKind(raw); err == nil {
		return k
	}
	return model.Kind(raw)
}
