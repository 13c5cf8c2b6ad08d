package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/joefrost01/batch-report/internal/api/handlers"
	"github.com/joefrost01/batch-report/pkg/logger"
	"github.com/joefrost01/batch-report/pkg/metrics"
)

// RouterConfig carries what NewRouter wires. Metrics may be nil.
type RouterConfig struct {
	Reports   *handlers.ReportHandler
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
	RateLimit float64 // requests per second across /api, 0 disables
	RateBurst int
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routes are declared in this function only
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	if cfg.RateLimit > 0 {
		api.Use(rateLimitMiddleware(cfg.RateLimit, cfg.RateBurst))
	}

	h := cfg.Reports
	api.HandleFunc("/catalog", h.GetCatalog).Methods("GET")

	reports := api.PathPrefix("/reports/{date}").Subrouter()
	reports.HandleFunc("", h.GetReport).Methods("GET")
	reports.HandleFunc("/send", h.Send).Methods("POST")
	reports.HandleFunc("/preview", h.Preview).Methods("GET")
	reports.HandleFunc("/email-preview", h.EmailPreview).Methods("GET")
	reports.HandleFunc("/eml", h.DownloadEML).Methods("GET")
	reports.HandleFunc("/xlsx", h.DownloadWorkbook).Methods("GET")
	reports.HandleFunc("/trend", h.GetTrend).Methods("GET")
	reports.HandleFunc("/backdated", h.GetBackdated).Methods("GET")

	r.Use(loggingMiddleware(cfg.Logger, cfg.Metrics))
	r.Use(recoveryMiddleware(cfg.Logger))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "batch-report-api",
	})
}
