package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"finance-tracker/internal/model"
)

const (
	transactionsFile = "transactions.json"
	investmentsFile  = "investments.json"
)

// JSONStore keeps each record set in a JSON array file under one directory.
// Files are read once at open and rewritten whole on every change.
type JSONStore struct {
	mu           sync.RWMutex
	dir          string
	transactions *collection[model.Transaction]
	investments  *collection[model.Investment]
	log          zerolog.Logger
}

// OpenJSON loads (or creates) the record files in dir.
func OpenJSON(dir string, log zerolog.Logger) (*JSONStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	log = log.With().Str("component", "json_store").Str("dir", dir).Logger()

	txs, err := loadCollection[model.Transaction](filepath.Join(dir, transactionsFile), log)
	if err != nil {
		return nil, err
	}
	invs, err := loadCollection[model.Investment](filepath.Join(dir, investmentsFile), log)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("transactions", len(txs.records)).
		Int("investments", len(invs.records)).
		Msg("JSON store opened")

	return &JSONStore{dir: dir, transactions: txs, investments: invs, log: log}, nil
}

func (s *JSONStore) Transactions(ctx context.Context) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transactions.list(), nil
}

func (s *JSONStore) AddTransaction(ctx context.Context, t model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactions.add(t)
}

func (s *JSONStore) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactions.remove(func(t model.Transaction) bool { return t.ID == id })
}

func (s *JSONStore) Investments(ctx context.Context) ([]model.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.investments.list(), nil
}

func (s *JSONStore) AddInvestment(ctx context.Context, inv model.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.investments.add(inv)
}

func (s *JSONStore) DeleteInvestment(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.investments.remove(func(inv model.Investment) bool { return inv.ID == id })
}

// Ping checks that the data directory is still there.
func (s *JSONStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }

// collection is one record set and the file backing it.
type collection[T any] struct {
	path    string
	records []T
}

func loadCollection[T any](path string, log zerolog.Logger) (*collection[T], error) {
	c := &collection[T]{path: path, records: []T{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, c.flush(c.records)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return c, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i, msg := range raw {
		var rec T
		if err := json.Unmarshal(msg, &rec); err != nil {
			log.Warn().Err(err).Str("file", filepath.Base(path)).Int("index", i).Msg("Skipping malformed record")
			continue
		}
		c.records = append(c.records, rec)
	}
	return c, nil
}

func (c *collection[T]) list() []T {
	out := make([]T, len(c.records))
	copy(out, c.records)
	return out
}

func (c *collection[T]) add(rec T) error {
	next := append(c.list(), rec)
	if err := c.flush(next); err != nil {
		return err
	}
	c.records = next
	return nil
}

func (c *collection[T]) remove(match func(T) bool) (bool, error) {
	next := make([]T, 0, len(c.records))
	for _, rec := range c.records {
		if !match(rec) {
			next = append(next, rec)
		}
	}
	if len(next) == len(c.records) {
		return false, nil
	}
	if err := c.flush(next); err != nil {
		return false, err
	}
	c.records = next
	return true, nil
}

// flush replaces the backing file with records via a temp file and rename.
func (c *collection[T]) flush(records []T) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(c.path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(c.path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(c.path), err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(c.path), err)
	}
	return nil
}
