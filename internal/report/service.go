// Package report orchestrates one reconciliation run: read the batch,
// reconcile it against the catalog, then render, mail or export the result.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/joefrost01/batch-report/internal/backdated"
	"github.com/joefrost01/batch-report/internal/catalog"
	"github.com/joefrost01/batch-report/internal/contracts"
	"github.com/joefrost01/batch-report/internal/export"
	"github.com/joefrost01/batch-report/internal/mailer"
	"github.com/joefrost01/batch-report/internal/reconcile"
	"github.com/joefrost01/batch-report/internal/render"
	"github.com/joefrost01/batch-report/internal/storage"
	"github.com/joefrost01/batch-report/internal/trend"
	"github.com/joefrost01/batch-report/pkg/logger"
	"github.com/joefrost01/batch-report/pkg/metrics"
	"github.com/joefrost01/batch-report/pkg/redis"
)

// ErrReportFailed wraps every failure of SendReport
var ErrReportFailed = errors.New("batch report failed")

// ChartGenerator renders the trend series as PNG
type ChartGenerator interface {
	PNG(counts []contracts.DailyStatusCount) ([]byte, error)
	WriteTemp(counts []contracts.DailyStatusCount) (string, error)
}

// Mailer delivers or serialises a message
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
	WriteEML(w io.Writer, msg mailer.Message) error
}

// Cache stores generated reports between requests
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Dependencies are the collaborators of a Service. Cache and Metrics are optional;
// the cache is used only when CacheTTL is positive.
type Dependencies struct {
	Store    storage.RecordStore
	Catalog  *catalog.Catalog
	Renderer *render.Renderer
	Chart    ChartGenerator
	Mailer   Mailer
	Cache    Cache
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
	Logger   *logger.Logger

	TrendWindowDays int
	BackdatedDays   int
	BackdatedLimit  int
}

// Service generates and delivers batch reports
// ⭐ SSOT: the only entry point that assembles a contracts.Report
type Service struct {
	store      storage.RecordStore
	catalog    *catalog.Catalog
	engine     *reconcile.Engine
	finder     *backdated.Finder
	aggregator *trend.Aggregator
	renderer   *render.Renderer
	chart      ChartGenerator
	mailer     Mailer
	cache      Cache
	cacheTTL   time.Duration
	metrics    *metrics.Metrics
	log        *logger.Logger
	now        func() time.Time
}

// NewService wires a Service
func NewService(deps Dependencies) (*Service, error) {
	if deps.Store == nil || deps.Catalog == nil || deps.Renderer == nil || deps.Chart == nil || deps.Mailer == nil {
		return nil, errors.New("report service: store, catalog, renderer, chart and mailer are required")
	}

	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("report")

	finderOpts := []backdated.Option{backdated.WithLogger(log)}
	if deps.BackdatedDays > 0 {
		finderOpts = append(finderOpts, backdated.WithLookbackDays(deps.BackdatedDays))
	}
	if deps.BackdatedLimit > 0 {
		finderOpts = append(finderOpts, backdated.WithLimit(deps.BackdatedLimit))
	}

	// a cache without a TTL is switched off
	cache := deps.Cache
	if deps.CacheTTL <= 0 {
		cache = nil
	}

	return &Service{
		store:      deps.Store,
		catalog:    deps.Catalog,
		engine:     reconcile.New(deps.Catalog),
		finder:     backdated.NewFinder(deps.Store, finderOpts...),
		aggregator: trend.NewAggregator(deps.Store, deps.TrendWindowDays),
		renderer:   deps.Renderer,
		chart:      deps.Chart,
		mailer:     deps.Mailer,
		cache:      cache,
		cacheTTL:   deps.CacheTTL,
		metrics:    deps.Metrics,
		log:        log,
		now:        time.Now,
	}, nil
}

// Catalog returns the catalog the service reconciles against
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// GenerateReport reconciles one batch date from a fresh read of the store.
// Nothing derived outlives the call.
func (s *Service) GenerateReport(ctx context.Context, batchDate time.Time) (*contracts.Report, error) {
	date := contracts.Day(batchDate)

	start := time.Now()
	report, err := s.generate(ctx, date)
	s.metrics.ObserveReport(start, err)
	if err != nil {
		return nil, err
	}

	s.metrics.SetBatch(report.Overview.TotalLoaded, report.Overview.MissingScenarios,
		len(report.Backdated), report.Overview.CompletionRate)

	s.log.WithFields(map[string]interface{}{
		"run_id":     report.RunID,
		"batch_date": date.Format(contracts.DateLayout),
		"loaded":     report.Overview.TotalLoaded,
		"expected":   report.Overview.TotalExpected,
		"missing":    report.Overview.MissingScenarios,
		"backdated":  len(report.Backdated),
		"duration":   time.Since(start).String(),
	}).Info("Report generated")

	return report, nil
}

// CachedReport serves read-only views. Without a configured cache it is
// GenerateReport; with one, a report may be up to the cache TTL old.
// Deliveries never go through here.
func (s *Service) CachedReport(ctx context.Context, batchDate time.Time) (*contracts.Report, error) {
	if s.cache == nil {
		return s.GenerateReport(ctx, batchDate)
	}

	key := redis.ReportKey(contracts.Day(batchDate).Format(contracts.DateLayout))

	var cached contracts.Report
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.WithError(err).Warn("Report cache lookup failed")
	}
	s.metrics.ObserveCache(found)
	if found && cached.CatalogHash == s.catalog.Hash() {
		return &cached, nil
	}

	report, err := s.GenerateReport(ctx, batchDate)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, report, s.cacheTTL); err != nil {
		s.log.WithError(err).Warn("Report cache store failed")
	}
	return report, nil
}

func (s *Service) generate(ctx context.Context, date time.Time) (*contracts.Report, error) {
	records, err := s.store.FindByBatchDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load batch records: %w", err)
	}

	summaries := s.engine.GroupSummaries(records)
	details := s.engine.ScenarioDetails(records)

	counts, err := s.aggregator.DailyCounts(ctx, date)
	if err != nil {
		return nil, err
	}

	late, err := s.finder.Find(ctx, date)
	if err != nil {
		return nil, err
	}

	return &contracts.Report{
		RunID:       uuid.NewString(),
		BatchDate:   date,
		GeneratedAt: s.now().UTC(),
		CatalogHash: s.catalog.Hash(),
		Overview:    reconcile.Overview(summaries, details),
		Summaries:   summaries,
		Details:     details,
		DailyCounts: counts,
		Backdated:   late,
	}, nil
}

// SendReport generates, renders and mails the report for batchDate.
// Either the full message is sent or nothing is.
func (s *Service) SendReport(ctx context.Context, batchDate time.Time) (err error) {
	date := contracts.Day(batchDate).Format(contracts.DateLayout)
	log := s.log.WithField("batch_date", date)

	defer func() {
		s.metrics.ObserveEmail(err)
		if err != nil {
			log.WithError(err).Error("Failed to send batch report")
			err = fmt.Errorf("%w for %s: %w", ErrReportFailed, date, err)
		}
	}()

	report, err := s.GenerateReport(ctx, batchDate)
	if err != nil {
		return err
	}

	chartPath, err := s.chart.WriteTemp(report.DailyCounts)
	if err != nil {
		s.metrics.ChartFailed()
		return fmt.Errorf("render chart: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(chartPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.WithError(rmErr).WithField("path", chartPath).Warn("Failed to remove chart file")
		}
	}()

	msg, err := s.emailMessage(report, chartPath)
	if err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		return err
	}

	log.WithField("run_id", report.RunID).Info("Batch report sent")
	return nil
}

func (s *Service) emailMessage(report *contracts.Report, chartPath string) (mailer.Message, error) {
	html, err := s.renderer.RenderEmail(report)
	if err != nil {
		return mailer.Message{}, err
	}

	png, err := os.ReadFile(chartPath)
	if err != nil {
		return mailer.Message{}, fmt.Errorf("read chart: %w", err)
	}

	return mailer.Message{
		Subject: report.Subject(),
		HTML:    html,
		Inline: []mailer.InlineImage{{
			ContentID: render.ChartCID,
			FileName:  "batch-status-chart.png",
			Data:      png,
		}},
	}, nil
}

// Preview renders a variant with the chart inlined as a data URL.
// A chart failure degrades to a placeholder instead of failing the page.
func (s *Service) Preview(ctx context.Context, batchDate time.Time, variant render.Variant) ([]byte, error) {
	report, err := s.CachedReport(ctx, batchDate)
	if err != nil {
		return nil, err
	}

	html, err := s.renderer.Render(report, variant)
	if err != nil {
		return nil, err
	}

	png, err := s.chart.PNG(report.DailyCounts)
	if err != nil {
		s.metrics.ChartFailed()
		s.log.WithError(err).Warn("Chart unavailable for preview")
		png = nil
	}

	return render.EmbedChart(html, png)
}

// EML builds the exact message SendReport would deliver, without sending it
func (s *Service) EML(ctx context.Context, batchDate time.Time) ([]byte, string, error) {
	report, err := s.GenerateReport(ctx, batchDate)
	if err != nil {
		return nil, "", err
	}

	chartPath, err := s.chart.WriteTemp(report.DailyCounts)
	if err != nil {
		s.metrics.ChartFailed()
		return nil, "", fmt.Errorf("render chart: %w", err)
	}
	defer os.Remove(chartPath)

	msg, err := s.emailMessage(report, chartPath)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := s.mailer.WriteEML(&buf, msg); err != nil {
		return nil, "", err
	}

	name := fmt.Sprintf("batch-report-%s.eml", report.BatchDate.Format(contracts.DateLayout))
	return buf.Bytes(), name, nil
}

// Workbook exports the report and the catalog as XLSX
func (s *Service) Workbook(ctx context.Context, batchDate time.Time) ([]byte, string, error) {
	report, err := s.CachedReport(ctx, batchDate)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, report, s.catalog.All()); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), export.FileName(report.BatchDate.Format(contracts.DateLayout)), nil
}
