package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joefrost01/batch-report/internal/api"
	"github.com/joefrost01/batch-report/internal/api/handlers"
	"github.com/joefrost01/batch-report/internal/demo"
	"github.com/joefrost01/batch-report/internal/scheduler"
	"github.com/joefrost01/batch-report/internal/scheduler/jobs"
	"github.com/joefrost01/batch-report/internal/storage/memory"
	"github.com/joefrost01/batch-report/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                              - Health check
  GET  /metrics                             - Prometheus metrics
  GET  /api/catalog                         - Expected scenario catalog
  GET  /api/reports/{date}                  - Report as JSON
  POST /api/reports/{date}/send             - Mail the report
  GET  /api/reports/{date}/preview          - Interactive HTML
  GET  /api/reports/{date}/email-preview    - Email HTML
  GET  /api/reports/{date}/eml              - Download .eml
  GET  /api/reports/{date}/xlsx             - Download workbook
  GET  /api/reports/{date}/trend            - Daily load counts
  GET  /api/reports/{date}/backdated        - Late arrivals

Example:
  go run ./cmd/batchreport api
  go run ./cmd/batchreport api --port 9090
  RECORD_STORE=memory go run ./cmd/batchreport api --demo`,
	RunE: runAPIServer,
}

var (
	apiPort string
	apiDemo bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
	apiCmd.Flags().BoolVar(&apiDemo, "demo", false, "fill the in-memory store with generated history")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	if apiDemo {
		mem, ok := a.store.(*memory.RecordStore)
		if !ok {
			return fmt.Errorf("--demo requires RECORD_STORE=memory")
		}
		end := time.Now().UTC()
		records := demo.Generate(a.catalog, end.AddDate(0, 0, -a.cfg.Report.TrendWindowDays), end, demo.DefaultOptions())
		if err := mem.Insert(ctx, records); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		a.log.WithField("records", len(records)).Info("Demo data loaded")
	}

	var limiter handlers.SendLimiter
	if a.redis.Enabled() {
		limiter = redis.NewRateLimiter(a.redis, "batchreport")
	}

	reportHandler := handlers.NewReportHandler(a.service, limiter, a.cfg.Report.SendLimitPerHour, a.log)
	router := api.NewRouter(api.RouterConfig{
		Reports:   reportHandler,
		Metrics:   a.metrics,
		Logger:    a.log,
		RateLimit: a.cfg.APIRateLimit,
		RateBurst: a.cfg.APIRateBurst,
	})
	server := api.New(a.cfg, a.log, router)

	if a.memo != nil {
		sched := scheduler.New(a.log, scheduler.WithLocation(a.cfg.Location()))
		if err := sched.AddJob(jobs.NewCacheCleanupJob(a.memo, a.log)); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", a.cfg.Port))
	PrintInfo("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
