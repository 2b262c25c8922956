package store

import (
	"context"
	"fmt"
	"strings"

	"finance-tracker/internal/model"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS categories (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		type VARCHAR(20) NOT NULL,
		color VARCHAR(7) DEFAULT '#667eea',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS transactions (
		seq BIGSERIAL,
		id VARCHAR(36) PRIMARY KEY,
		date DATE NOT NULL,
		description VARCHAR(255) NOT NULL,
		amount DECIMAL(15,2) NOT NULL CHECK (amount >= 0),
		category_id INTEGER REFERENCES categories(id),
		type VARCHAR(20) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS investments (
		seq BIGSERIAL,
		id VARCHAR(36) PRIMARY KEY,
		purchase_date DATE NOT NULL,
		name VARCHAR(255) NOT NULL,
		ticker VARCHAR(32) NOT NULL,
		asset_type VARCHAR(20) NOT NULL,
		amount_invested DOUBLE PRECISION NOT NULL CHECK (amount_invested > 0),
		purchase_price DOUBLE PRECISION NOT NULL CHECK (purchase_price > 0),
		units DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Remove duplicates before enforcing uniqueness
	DO $$
	BEGIN
		IF EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'categories'
		) THEN
			WITH d AS (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY name, type ORDER BY id) rn
				FROM categories
			)
			DELETE FROM categories WHERE id IN (SELECT id FROM d WHERE rn > 1);
		END IF;
	END $$;

	CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_type ON categories(name, type);
	CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
	CREATE INDEX IF NOT EXISTS idx_investments_purchase_date ON investments(purchase_date);
`

// EnsureSchema creates the tables and seeds the category catalogue. It is
// safe to run repeatedly.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	n, err := s.SeedCategories(ctx)
	if err != nil {
		return err
	}
	s.log.Info().Int64("categories_added", n).Msg("Schema ready")
	return nil
}

// SeedCategories inserts any catalogue category missing from the table and
// returns how many were added.
func (s *PostgresStore) SeedCategories(ctx context.Context) (int64, error) {
	cats := model.Categories()

	var (
		values strings.Builder
		args   = make([]any, 0, len(cats)*3)
	)
	for i, c := range cats {
		if i > 0 {
			values.WriteString(", ")
		}
		fmt.Fprintf(&values, "($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3)
		args = append(args, c.Name, strings.ToLower(string(c.Kind)), c.Color)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (name, type, color) VALUES "+values.String()+
			" ON CONFLICT (name, type) DO NOTHING", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to seed categories: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
