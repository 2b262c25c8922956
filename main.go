package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"finance-tracker/internal/config"
	"finance-tracker/internal/export"
	"finance-tracker/internal/logger"
	"finance-tracker/internal/scheduler"
)

var (
	cfgFile string
	cfg     *config.Config
	log     zerolog.Logger

	rootCmd = &cobra.Command{
		Use:   "finance-tracker",
		Short: "Personal finance tracker: transactions, investments and net worth",
		Long: `finance-tracker records cash transactions and investment purchases,
values the portfolio at market prices and serves a JSON API with a
consolidated ledger, a dashboard and a spreadsheet export.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedDemoCmd())
	rootCmd.AddCommand(exportCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)
	return nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Close()

	if cfg.RefreshSchedule != "" {
		sched, err := startScheduler(a, cfg, log)
		if err != nil {
			return err
		}
		defer sched.Stop()
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startScheduler registers the quote warmer, starts the cron loop and warms
// the cache once in the background without waiting for the first tick.
func startScheduler(a *app, cfg *config.Config, log zerolog.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(log)
	job := scheduler.NewQuoteWarmerJob(a.tracker, a.quotes, cfg.PriceTimeout*10, log)
	if err := sched.AddJob(cfg.RefreshSchedule, job); err != nil {
		return nil, fmt.Errorf("invalid PRICE_REFRESH_SCHEDULE %q: %w", cfg.RefreshSchedule, err)
	}
	sched.Start()

	go func() {
		if err := sched.RunNow(job); err != nil {
			log.Warn().Err(err).Msg("Initial quote refresh failed")
		}
	}()
	return sched, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the store schema and seed categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := runMigrate(cmd.Context(), cfg, log); err != nil {
				return err
			}
			log.Info().Msg("Migration completed successfully")
			return nil
		},
	}
}

func seedDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-demo",
		Short: "Seed demo transactions and investments (idempotent)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer a.Close()

			n, err := seedDemoData(cmd.Context(), a.tracker, time.Now())
			if err != nil {
				return fmt.Errorf("seeding demo data failed: %w", err)
			}
			log.Info().Int("records", n).Msg("Demo data seeded")
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every record to an XLSX workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer a.Close()

			report, err := a.tracker.Report(cmd.Context())
			if err != nil {
				return err
			}

			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := export.WriteWorkbook(f, report.Transactions, report.Investments); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}

			log.Info().
				Str("file", out).
				Int("transactions", len(report.Transactions)).
				Int("investments", len(report.Investments)).
				Msg("Report exported")
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", export.Filename, "output file")
	return cmd
}
