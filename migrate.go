package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"finance-tracker/internal/config"
	"finance-tracker/internal/store"
	"finance-tracker/internal/tracker"
)

// runMigrate prepares the configured store: tables and category seed for
// postgres, empty record files for the json store.
func runMigrate(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	log.Info().Str("driver", cfg.StoreDriver).Msg("Preparing store")

	st, err := store.Open(ctx, store.Options{
		Driver:      cfg.StoreDriver,
		DataDir:     cfg.DataDir,
		DatabaseURL: cfg.DatabaseURL,
	}, log)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer st.Close()

	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("store not reachable after migration: %w", err)
	}
	return nil
}

type demoTransaction struct {
	daysAgo     int
	description string
	category    string
	kind        string
	amount      float64
}

var demoTransactions = []demoTransaction{
	{28, "Monthly Salary", "Salary", "Income", 3200.00},
	{25, "Freelance: Landing Page", "Freelance", "Income", 850.00},
	{24, "Rent - Apartment", "Rent", "Expense", 1500.00},
	{22, "Utilities - Electricity", "Utilities", "Expense", 120.45},
	{20, "Groceries - Whole Foods", "Groceries", "Expense", 96.72},
	{19, "Subway Pass", "Transportation", "Expense", 45.00},
	{16, "Movie Night", "Entertainment", "Expense", 28.50},
	{14, "Groceries - Trader Joes", "Groceries", "Expense", 64.11},
	{13, "Freelance: Dashboard Charts", "Freelance", "Income", 600.00},
	{11, "Utilities - Internet", "Utilities", "Expense", 60.00},
	{8, "Concert Tickets", "Entertainment", "Expense", 140.00},
	{6, "Groceries - Costco", "Groceries", "Expense", 132.39},
	{4, "Rideshare", "Transportation", "Expense", 22.30},
	{1, "Dinner Out", "Dining", "Expense", 54.80},
}

type demoInvestment struct {
	daysAgo int
	name    string
	ticker  string
	kind    string
	amount  float64
	price   float64
}

// Purchase prices are supplied so seeding works offline.
var demoInvestments = []demoInvestment{
	{540, "Apple Inc.", "AAPL", "Stock", 1500.00, 150.00},
	{120, "Vanguard Total Stock Market Index Fund", "VTSAX", "Mutual Fund", 2000.00, 125.00},
	{60, "Bank Fixed Deposit", "N/A", "Fixed Deposit", 5000.00, 0},
}

// seedDemoData adds a small set of demo transactions and investments.
// Idempotent: will only run if there are zero transactions present.
func seedDemoData(ctx context.Context, svc *tracker.Service, now time.Time) (int, error) {
	existing, err := svc.Transactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("checking transactions count: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	day := func(daysAgo int) string {
		return now.AddDate(0, 0, -daysAgo).Format("2006-01-02")
	}

	added := 0
	for _, d := range demoTransactions {
		_, err := svc.AddTransaction(ctx, tracker.NewTransaction{
			Date:        day(d.daysAgo),
			Description: d.description,
			Category:    d.category,
			Type:        d.kind,
			Amount:      d.amount,
		})
		if err != nil {
			return added, fmt.Errorf("seeding demo transactions: %w", err)
		}
		added++
	}
	for _, d := range demoInvestments {
		_, err := svc.AddInvestment(ctx, tracker.NewInvestment{
			PurchaseDate:   day(d.daysAgo),
			Name:           d.name,
			Ticker:         d.ticker,
			Type:           d.kind,
			AmountInvested: d.amount,
			PurchasePrice:  d.price,
		})
		if err != nil {
			return added, fmt.Errorf("seeding demo investments: %w", err)
		}
		added++
	}
	return added, nil
}
