// Package tracker implements the use cases of the finance tracker on top of
// the record store and the valuation engine.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/model"
	"finance-tracker/internal/portfolio"
	"finance-tracker/internal/pricing"
	"finance-tracker/internal/store"
)

var (
	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrPriceUnavailable is returned when no purchase price can be resolved.
	ErrPriceUnavailable = errors.New("purchase price unavailable")
)

// Prices is what the tracker needs from the price resolver.
type Prices interface {
	portfolio.LivePricer
	Historical(ctx context.Context, ticker string, on model.Date) pricing.Price
	Search(ctx context.Context, query string) ([]pricing.Match, error)
}

// NewTransaction is the user input for a transaction.
type NewTransaction struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
}

// NewInvestment is the user input for an investment purchase. A positive
// PurchasePrice skips the historical price lookup.
type NewInvestment struct {
	PurchaseDate   string  `json:"purchase_date"`
	Name           string  `json:"name"`
	Ticker         string  `json:"ticker"`
	Type           string  `json:"type"`
	AmountInvested float64 `json:"amount_invested"`
	PurchasePrice  float64 `json:"purchase_price,omitempty"`
}

// Report is the data behind the spreadsheet export.
type Report struct {
	Transactions []model.Transaction
	Investments  []model.EnrichedInvestment
}

// Service coordinates the store, the price resolver and the enricher.
type Service struct {
	store    store.Store
	prices   Prices
	enricher *portfolio.Enricher
	now      func() time.Time
	log      zerolog.Logger
}

// New creates a Service. now is the clock used for date validation; nil means time.Now.
func New(st store.Store, prices Prices, enricher *portfolio.Enricher, now func() time.Time, log zerolog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    st,
		prices:   prices,
		enricher: enricher,
		now:      now,
		log:      log.With().Str("component", "tracker").Logger(),
	}
}

// AddTransaction validates in, assigns an id and stores the transaction.
func (s *Service) AddTransaction(ctx context.Context, in NewTransaction) (model.Transaction, error) {
	date, err := model.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("%w: %w", model.ErrInvalid, err)
	}
	kind, err := model.ParseKind(strings.TrimSpace(in.Type))
	if err != nil {
		return model.Transaction{}, err
	}

	category := strings.TrimSpace(in.Category)
	if c, ok := model.LookupCategory(category); ok {
		category = c.Name
	}

	t := model.Transaction{
		ID:          uuid.NewString(),
		Date:        date,
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		Kind:        kind,
		Amount:      in.Amount,
	}
	if err := t.Validate(); err != nil {
		return model.Transaction{}, err
	}
	// Both stores keep transaction amounts in cents.
	t.Amount = portfolio.Round(t.Amount)
	if err := s.store.AddTransaction(ctx, t); err != nil {
		return model.Transaction{}, fmt.Errorf("failed to save transaction: %w", err)
	}

	s.log.Info().Str("id", t.ID).Str("type", string(t.Kind)).Float64("amount", t.Amount).Msg("Transaction added")
	return t, nil
}

// AddInvestment validates in, resolves the purchase price and stores the
// investment. Nothing is stored when the price cannot be resolved.
func (s *Service) AddInvestment(ctx context.Context, in NewInvestment) (model.Investment, error) {
	date, err := model.ParseDate(strings.TrimSpace(in.PurchaseDate))
	if err != nil {
		return model.Investment{}, fmt.Errorf("%w: %w", model.ErrInvalid, err)
	}
	if date.After(model.DateOf(s.now())) {
		return model.Investment{}, fmt.Errorf("%w: purchase date %s is in the future", model.ErrInvalid, date)
	}
	asset, err := model.ParseAssetType(in.Type)
	if err != nil {
		return model.Investment{}, err
	}
	if !(in.AmountInvested > 0) || in.AmountInvested > model.MaxAmount {
		return model.Investment{}, fmt.Errorf("%w: amount invested must be positive and at most %v, got %v", model.ErrInvalid, model.MaxAmount, in.AmountInvested)
	}
	if strings.TrimSpace(in.Name) == "" {
		return model.Investment{}, fmt.Errorf("%w: investment name is required", model.ErrInvalid)
	}

	ticker := model.NormalizeTicker(in.Ticker)
	price, err := s.purchasePrice(ctx, ticker, date, in.PurchasePrice)
	if err != nil {
		return model.Investment{}, err
	}

	inv := model.Investment{
		ID:             uuid.NewString(),
		PurchaseDate:   date,
		Name:           strings.TrimSpace(in.Name),
		Ticker:         ticker,
		AssetType:      asset,
		AmountInvested: in.AmountInvested,
		PurchasePrice:  price,
		Units:          model.UnitsFor(in.AmountInvested, price),
	}
	if err := inv.Validate(); err != nil {
		return model.Investment{}, err
	}
	if err := s.store.AddInvestment(ctx, inv); err != nil {
		return model.Investment{}, fmt.Errorf("failed to save investment: %w", err)
	}

	s.log.Info().
		Str("id", inv.ID).
		Str("ticker", inv.Ticker).
		Float64("purchase_price", inv.PurchasePrice).
		Float64("units", inv.Units).
		Msg("Investment added")
	return inv, nil
}

func (s *Service) purchasePrice(ctx context.Context, ticker string, on model.Date, manual float64) (float64, error) {
	if model.IsFixedPrice(ticker) {
		return pricing.FixedUnitPrice, nil
	}
	if manual > 0 {
		s.log.Debug().Str("ticker", ticker).Float64("price", manual).Msg("Using supplied purchase price")
		return manual, nil
	}
	p := s.prices.Historical(ctx, ticker, on)
	if !p.OK {
		return 0, fmt.Errorf("%w: no close for %s on or shortly before %s", ErrPriceUnavailable, ticker, on)
	}
	return p.Value, nil
}

// Transactions lists transactions newest first. Same-day records keep store order.
func (s *Service) Transactions(ctx context.Context) ([]model.Transaction, error) {
	txs, err := s.store.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	slices.SortStableFunc(txs, func(a, b model.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	return txs, nil
}

// Investments lists every investment valued at current prices, in store order.
func (s *Service) Investments(ctx context.Context) ([]model.EnrichedInvestment, error) {
	invs, err := s.store.Investments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	return s.enricher.EnrichAll(ctx, invs), nil
}

// Tickers returns the distinct market tickers currently held.
func (s *Service) Tickers(ctx context.Context) ([]string, error) {
	invs, err := s.store.Investments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	seen := make(map[string]bool)
	tickers := make([]string, 0)
	for _, inv := range invs {
		t := model.NormalizeTicker(inv.Ticker)
		if model.IsFixedPrice(t) || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	return tickers, nil
}

// DeleteTransaction removes a transaction by id.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	ok, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: transaction %s", ErrNotFound, id)
	}
	s.log.Info().Str("id", id).Msg("Transaction deleted")
	return nil
}

// DeleteInvestment removes an investment by id.
func (s *Service) DeleteInvestment(ctx context.Context, id string) error {
	ok, err := s.store.DeleteInvestment(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete investment: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: investment %s", ErrNotFound, id)
	}
	s.log.Info().Str("id", id).Msg("Investment deleted")
	return nil
}

// Ledger consolidates every record falling inside r.
func (s *Service) Ledger(ctx context.Context, r ledger.Range) (ledger.View, error) {
	txs, err := s.store.Transactions(ctx)
	if err != nil {
		return ledger.View{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	invs, err := s.store.Investments(ctx)
	if err != nil {
		return ledger.View{}, fmt.Errorf("failed to list investments: %w", err)
	}
	return ledger.Consolidate(txs, invs, r), nil
}

// Dashboard summarizes balances and the portfolio at current prices.
func (s *Service) Dashboard(ctx context.Context) (ledger.Dashboard, error) {
	report, err := s.Report(ctx)
	if err != nil {
		return ledger.Dashboard{}, err
	}
	return ledger.Summarize(report.Transactions, report.Investments), nil
}

// Report gathers raw transactions and valued investments.
func (s *Service) Report(ctx context.Context) (Report, error) {
	txs, err := s.store.Transactions(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	enriched, err := s.Investments(ctx)
	if err != nil {
		return Report{}, err
	}
	return Report{Transactions: txs, Investments: enriched}, nil
}

// SearchTickers suggests instruments matching query.
func (s *Service) SearchTickers(ctx context.Context, query string) ([]pricing.Match, error) {
	return s.prices.Search(ctx, query)
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
