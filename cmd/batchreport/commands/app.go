package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/joefrost01/batch-report/internal/cache"
	"github.com/joefrost01/batch-report/internal/catalog"
	"github.com/joefrost01/batch-report/internal/chart"
	"github.com/joefrost01/batch-report/internal/contracts"
	"github.com/joefrost01/batch-report/internal/mailer"
	"github.com/joefrost01/batch-report/internal/render"
	"github.com/joefrost01/batch-report/internal/report"
	"github.com/joefrost01/batch-report/internal/scheduler/jobs"
	"github.com/joefrost01/batch-report/internal/storage"
	chstore "github.com/joefrost01/batch-report/internal/storage/clickhouse"
	"github.com/joefrost01/batch-report/internal/storage/memory"
	pgstore "github.com/joefrost01/batch-report/internal/storage/postgres"
	"github.com/joefrost01/batch-report/pkg/config"
	"github.com/joefrost01/batch-report/pkg/database"
	"github.com/joefrost01/batch-report/pkg/logger"
	"github.com/joefrost01/batch-report/pkg/metrics"
	"github.com/joefrost01/batch-report/pkg/redis"
)

// app holds everything a command needs, built once from config
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   storage.RecordStore
	catalog *catalog.Catalog
	service *report.Service
	redis   *redis.Client
	memo    *cache.MemoryCache // set when Redis is off
	metrics *metrics.Metrics
	closers []func()
}

// newApp loads config and wires storage, cache and the report service
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &app{cfg: cfg, log: logger.New(cfg)}

	a.store, err = a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.catalog, err = catalog.Load(cfg.Report.CatalogPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	a.redis, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		a.log.WithError(err).Warn("Redis unavailable, continuing without cache and send limits")
		a.redis = redis.Disabled()
	}
	a.closers = append(a.closers, func() { a.redis.Close() })

	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	renderer, err := render.New(render.Options{
		DetailLimit:  cfg.Report.EmailDetailLimit,
		LookbackDays: cfg.Report.BackdatedDays,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	deps := report.Dependencies{
		Store:           a.store,
		Catalog:         a.catalog,
		Renderer:        renderer,
		Chart:           chart.NewGenerator(chart.WithSampleEvery(cfg.Report.ChartSampleEvery)),
		Mailer:          mailer.New(cfg.Mail, a.log),
		CacheTTL:        cfg.Report.CacheTTL,
		Metrics:         a.metrics,
		Logger:          a.log,
		TrendWindowDays: cfg.Report.TrendWindowDays,
		BackdatedDays:   cfg.Report.BackdatedDays,
		BackdatedLimit:  cfg.Report.BackdatedLimit,
	}
	switch {
	case cfg.Report.CacheTTL <= 0:
		// views are recomputed on every request
	case a.redis.Enabled():
		deps.Cache = redis.NewCache(a.redis, "batchreport")
	default:
		a.memo = cache.NewMemoryCache(a.log)
		deps.Cache = a.memo
	}

	a.service, err = report.NewService(deps)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.log.WithFields(map[string]interface{}{
		"env":          cfg.Env,
		"record_store": cfg.RecordStore,
		"catalog":      a.catalog.Len(),
		"redis":        a.redis.Enabled(),
		"cache_ttl":    cfg.Report.CacheTTL.String(),
	}).Debug("Application wired")

	return a, nil
}

func (a *app) openStore(ctx context.Context) (storage.RecordStore, error) {
	switch a.cfg.RecordStore {
	case config.StoreClickHouse:
		conn, err := chstore.NewConn(ctx, a.cfg.ClickHouse.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		a.closers = append(a.closers, func() { conn.Close() })
		return chstore.NewRecordStore(conn), nil

	case config.StoreMemory:
		a.log.Warn("Using the in-memory record store; data is lost on exit")
		return memory.NewRecordStore(), nil

	default:
		db, err := database.New(ctx, a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return pgstore.NewRecordStore(db.Pool), nil
	}
}

// Close releases connections in reverse order of opening
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// batchDateFlag parses --date, defaulting to the previous business day in the report timezone
func (a *app) batchDateFlag(raw string) (time.Time, error) {
	if raw == "" {
		return jobs.PreviousBusinessDay(time.Now().In(a.cfg.Location())), nil
	}
	d, err := contracts.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", raw)
	}
	return d, nil
}
