// Package metrics exposes Prometheus instruments for report runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "batch_report"

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds every instrument. Each instance owns its registry so tests
// can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	ReportsGenerated  *prometheus.CounterVec
	ReportDuration    prometheus.Histogram
	EmailsSent        *prometheus.CounterVec
	ChartRenderErrors prometheus.Counter
	CacheHits         *prometheus.CounterVec

	LoadedScenarios  prometheus.Gauge
	MissingScenarios prometheus.Gauge
	BackdatedCount   prometheus.Gauge
	CompletionRate   prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	LastSuccessfulSend prometheus.Gauge
}

// New registers all instruments on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := factory{reg: reg}

	m := &Metrics{
		registry: reg,

		ReportsGenerated: f.counterVec(prometheus.CounterOpts{
			Subsystem: "report",
			Name:      "generated_total",
			Help:      "Reports generated by outcome",
		}, []string{"outcome"}),
		ReportDuration: f.histogram(prometheus.HistogramOpts{
			Subsystem: "report",
			Name:      "generation_duration_seconds",
			Help:      "Time to generate one report",
			Buckets:   prometheus.DefBuckets,
		}),
		EmailsSent: f.counterVec(prometheus.CounterOpts{
			Subsystem: "mail",
			Name:      "sent_total",
			Help:      "Report emails by outcome",
		}, []string{"outcome"}),
		ChartRenderErrors: f.counter(prometheus.CounterOpts{
			Subsystem: "chart",
			Name:      "render_errors_total",
			Help:      "Trend chart render failures",
		}),
		CacheHits: f.counterVec(prometheus.CounterOpts{
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Report cache lookups by result",
		}, []string{"result"}),

		LoadedScenarios: f.gauge(prometheus.GaugeOpts{
			Subsystem: "batch",
			Name:      "loaded_scenarios",
			Help:      "Scenarios loaded in the last generated batch",
		}),
		MissingScenarios: f.gauge(prometheus.GaugeOpts{
			Subsystem: "batch",
			Name:      "missing_scenarios",
			Help:      "Expected scenarios missing in the last generated batch",
		}),
		BackdatedCount: f.gauge(prometheus.GaugeOpts{
			Subsystem: "batch",
			Name:      "backdated_scenarios",
			Help:      "Backdated scenarios found by the last generated report",
		}),
		CompletionRate: f.gauge(prometheus.GaugeOpts{
			Subsystem: "batch",
			Name:      "completion_rate_percent",
			Help:      "Completion rate of the last generated batch",
		}),

		HTTPRequests: f.counterVec(prometheus.CounterOpts{
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: f.histogramVec(prometheus.HistogramOpts{
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		LastSuccessfulSend: f.gauge(prometheus.GaugeOpts{
			Subsystem: "mail",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful report email",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveReport records one generation attempt
func (m *Metrics) ObserveReport(start time.Time, err error) {
	if m == nil {
		return
	}
	m.ReportDuration.Observe(time.Since(start).Seconds())
	m.ReportsGenerated.WithLabelValues(outcome(err)).Inc()
}

// ObserveEmail records one send attempt
func (m *Metrics) ObserveEmail(err error) {
	if m == nil {
		return
	}
	m.EmailsSent.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		m.LastSuccessfulSend.SetToCurrentTime()
	}
}

// ObserveCache records a cache lookup
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheHits.WithLabelValues(result).Inc()
}

// SetBatch publishes headline numbers of the latest report
func (m *Metrics) SetBatch(loaded, missing, backdated int, completion float64) {
	if m == nil {
		return
	}
	m.LoadedScenarios.Set(float64(loaded))
	m.MissingScenarios.Set(float64(missing))
	m.BackdatedCount.Set(float64(backdated))
	m.CompletionRate.Set(completion)
}

// ChartFailed counts a chart render failure
func (m *Metrics) ChartFailed() {
	if m == nil {
		return
	}
	m.ChartRenderErrors.Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

type factory struct {
	reg prometheus.Registerer
}

func (f factory) counter(opts prometheus.CounterOpts) prometheus.Counter {
	opts.Namespace = namespace
	c := prometheus.NewCounter(opts)
	f.reg.MustRegister(c)
	return c
}

func (f factory) counterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	opts.Namespace = namespace
	c := prometheus.NewCounterVec(opts, labels)
	f.reg.MustRegister(c)
	return c
}

func (f factory) gauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	opts.Namespace = namespace
	g := prometheus.NewGauge(opts)
	f.reg.MustRegister(g)
	return g
}

func (f factory) histogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	opts.Namespace = namespace
	h := prometheus.NewHistogram(opts)
	f.reg.MustRegister(h)
	return h
}

func (f factory) histogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	opts.Namespace = namespace
	h := prometheus.NewHistogramVec(opts, labels)
	f.reg.MustRegister(h)
	return h
}
