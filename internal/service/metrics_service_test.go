package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceRunCounters(t *testing.T) {
	m := NewMetricsService()
	m.RunStarted()
	m.GenerationEvaluated()
	m.GenerationEvaluated()
	m.RunCompleted(96.5, 2*time.Second)
	m.RunFailed()
	m.RecordProgressLookup(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.generations))
	assert.Equal(t, 96.5, testutil.ToFloat64(m.lastFitness))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsFinished.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.progressLookups.WithLabelValues("hit")))
}

func TestMetricsServiceHandler(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/generator/runs", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), "ga_runs_started_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RunStarted()
	m.RunCompleted(1, time.Second)
	m.RecordProgressLookup(false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
