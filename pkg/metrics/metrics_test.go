package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveReport(t *testing.T) {
	m := New()
	m.ObserveReport(time.Now(), nil)
	m.ObserveReport(time.Now(), nil)
	m.ObserveReport(time.Now(), errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReportsGenerated.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsGenerated.WithLabelValues(OutcomeError)))
}

func TestObserveEmail(t *testing.T) {
	m := New()
	m.ObserveEmail(errors.New("smtp down"))
	assert.Zero(t, testutil.ToFloat64(m.LastSuccessfulSend))

	m.ObserveEmail(nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmailsSent.WithLabelValues(OutcomeSuccess)))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccessfulSend), 0.0)
}

func TestSetBatchAndCache(t *testing.T) {
	m := New()
	m.SetBatch(70, 2, 5, 97.2)
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)

	assert.Equal(t, 70.0, testutil.ToFloat64(m.LoadedScenarios))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MissingScenarios))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.BackdatedCount))
	assert.InDelta(t, 97.2, testutil.ToFloat64(m.CompletionRate), 1e-9)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("miss")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReport(time.Now(), nil)
		m.ObserveEmail(nil)
		m.ObserveCache(true)
		m.SetBatch(1, 2, 3, 4)
		m.ChartFailed()
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ChartFailed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "batch_report_chart_render_errors_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
