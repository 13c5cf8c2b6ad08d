package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/joefrost01/batch-report/internal/catalog"
	"github.com/joefrost01/batch-report/internal/contracts"
	"github.com/joefrost01/batch-report/internal/export"
	"github.com/joefrost01/batch-report/internal/mailer"
	"github.com/joefrost01/batch-report/internal/render"
	"github.com/joefrost01/batch-report/pkg/logger"
	"github.com/joefrost01/batch-report/pkg/redis"
)

// ReportService is what the handlers need from report.Service
type ReportService interface {
	CachedReport(ctx context.Context, batchDate time.Time) (*contracts.Report, error)
	SendReport(ctx context.Context, batchDate time.Time) error
	Preview(ctx context.Context, batchDate time.Time, variant render.Variant) ([]byte, error)
	EML(ctx context.Context, batchDate time.Time) ([]byte, string, error)
	Workbook(ctx context.Context, batchDate time.Time) ([]byte, string, error)
	Catalog() *catalog.Catalog
}

// SendLimiter guards manual deliveries
type SendLimiter interface {
	Allow(ctx context.Context, cfg redis.RateLimitConfig) (bool, int, error)
}

// ReportHandler serves report endpoints
// ⭐ SSOT: report API handlers live in this struct only
type ReportHandler struct {
	service      ReportService
	limiter      SendLimiter
	sendsPerHour int
	logger       *logger.Logger
}

// NewReportHandler creates a new report handler. limiter may be nil.
func NewReportHandler(service ReportService, limiter SendLimiter, sendsPerHour int, log *logger.Logger) *ReportHandler {
	if sendsPerHour <= 0 {
		sendsPerHour = 3
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReportHandler{
		service:      service,
		limiter:      limiter,
		sendsPerHour: sendsPerHour,
		logger:       log,
	}
}

// batchDate parses the {date} path variable, answering 400 when invalid
func (h *ReportHandler) batchDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := mux.Vars(r)["date"]
	date, err := contracts.ParseDate(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// GetReport returns the reconciliation result as JSON
// GET /api/reports/{date}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	date, ok := h.batchDate(w, r)
	if !ok {
		return
	}

	report, err := h.service.CachedReport(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate report")
		respondError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetTrend returns the daily load series
// GET /api/reports/{date}/trend
func (h *ReportHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	date, ok := h.batchDate(w, r)
	if !ok {
		return
	}

	report, err := h.service.CachedReport(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate trend")
		respondError(w, http.StatusInternalServerError, "Failed to generate trend")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"batch_date": report.BatchDate.Format(contracts.DateLayout),
		"days":       len(report.DailyCounts),
		"counts":     report.DailyCounts,
	})
}

// GetBackdated returns recently loaded backdated scenarios
// GET /api/reports/{date}/backdated
func (h *ReportHandler) GetBackdated(w http.ResponseWriter, r *http.Request) {
	date, ok := h.batchDate(w, r)
	if !ok {
		return
	}

	report, err := h.service.CachedReport(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to find backdated scenarios")
		respondError(w, http.StatusInternalServerError, "Failed to find backdated scenarios")
		return
	}

	type row struct {
		contracts.BackdatedScenario
		DaysLate int                    `json:"days_late"`
		Severity contracts.LateSeverity `json:"severity"`
	}
	rows := make([]row, 0, len(report.Backdated))
	for _, b := range report.Backdated {
		rows = append(rows, row{BackdatedScenario: b, DaysLate: b.DaysLate(), Severity: b.Severity()})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"batch_date": report.BatchDate.Format(contracts.DateLayout),
		"count":      len(rows),
		"scenarios":  rows,
	})
}

// Send mails the report for a batch date
// POST /api/reports/{date}/send
func (h *ReportHandler) Send(w http.ResponseWriter, r *http.Request) {
	date, ok := h.batchDate(w, r)
	if !ok {
		return
	}
	day := date.Format(contracts.DateLayout)

	if h.limiter != nil {
		allowed, remaining, err := h.limiter.Allow(r.Context(), redis.SendRateLimit(day, h.sendsPerHour))
		if err != nil {
			h.logger.WithError(err).Warn("Send rate limit check failed, allowing request")
		} else {
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				respondError(w, http.StatusTooManyRequests, "Too many sends for this batch date, try again later")
				return
			}
		}
	}

	if err := h.service.SendReport(r.Context(), date); err != nil {
		if errors.Is(err, mailer.ErrNoRecipients) {
			respondError(w, http.StatusUnprocessableEntity, "No mail recipients configured")
			return
		}
		respondError(w, http.StatusBadGateway, "Failed to send report")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "sent",
		"batch_date": day,
	})
}

// Preview renders the interactive page with the chart inlined
// GET /api/reports/{date}/preview
func (h *ReportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.preview(w, r, render.VariantFull)
}

// EmailPreview renders the email layout with the chart inlined
// GET /api/reports/{date}/email-preview
func (h *ReportHandler) EmailPreview(w http.ResponseWriter, r *http.Request) {
	h.preview(w, r, render.VariantEmail)
}

func (h *ReportHandler) preview(w http.ResponseWriter, r *http.Request, variant render.Variant) {
	date, ok := h.batchDate(w, r)
	if !ok {
		return
	}

	html, err := h.service.Preview(r.Context(), date, variant)
	if err != nil {
		h.logger.WithError(err).WithField("variant", string(variant)).Error("Failed to render preview")
		respondError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}

	respondHTML(w, html)
}

// DownloadEML returns the report email as a .eml file
// GET /api/reports/{date}/eml
func (h *ReportHandler) DownloadEML(w http.ResponseWriter, r *http.Request) {
	date, ok := h.batchDate(w, r)
	if !ok {
		return
	}

	data, name, err := h.service.EML(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build eml")
		respondError(w, http.StatusInternalServerError, "Failed to build email")
		return
	}

	respondAttachment(w, "message/rfc822", name, data)
}

// DownloadWorkbook returns the report as an Excel workbook
// GET /api/reports/{date}/xlsx
func (h *ReportHandler) DownloadWorkbook(w http.ResponseWriter, r *http.Request) {
	date, ok := h.batchDate(w, r)
	if !ok {
		return
	}

	data, name, err := h.service.Workbook(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build workbook")
		respondError(w, http.StatusInternalServerError, "Failed to build workbook")
		return
	}

	respondAttachment(w, export.ContentType, name, data)
}

// GetCatalog returns the expected scenarios and derived lookups
// GET /api/catalog
func (h *ReportHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	cat := h.service.Catalog()

	products := make(map[string][]string)
	for _, ac := range cat.AssetClasses() {
		products[ac] = cat.ProductsForAssetClass(ac)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"hash":          cat.Hash(),
		"count":         cat.Len(),
		"groups":        len(cat.GroupKeys()),
		"asset_classes": cat.AssetClasses(),
		"entities":      cat.Entities(),
		"products":      products,
		"scenarios":     cat.All(),
	})
}
