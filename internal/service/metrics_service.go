package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for HTTP traffic and generator runs.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	runsStarted     prometheus.Counter
	runsFinished    *prometheus.CounterVec
	runDuration     prometheus.Histogram
	generations     prometheus.Counter
	lastFitness     prometheus.Gauge
	progressLookups *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	runsStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ga_runs_started_total",
		Help: "Generator runs accepted for execution",
	})

	runsFinished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ga_runs_finished_total",
		Help: "Generator runs that reached a terminal state",
	}, []string{"status"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ga_run_duration_seconds",
		Help:    "Wall time of the evolution loop",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	generations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ga_generations_total",
		Help: "Generations evaluated across all runs",
	})

	lastFitness := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ga_last_run_fitness",
		Help: "Best fitness of the most recently completed run",
	})

	progressLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ga_progress_lookups_total",
		Help: "Progress lookups split by cache outcome",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, runsStarted, runsFinished, runDuration, generations, lastFitness, progressLookups, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		runsStarted:     runsStarted,
		runsFinished:    runsFinished,
		runDuration:     runDuration,
		generations:     generations,
		lastFitness:     lastFitness,
		progressLookups: progressLookups,
	}
}

// Registry exposes the registry for additional collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RunStarted counts an accepted run.
func (m *MetricsService) RunStarted() {
	if m == nil {
		return
	}
	m.runsStarted.Inc()
}

// GenerationEvaluated counts one finished generation.
func (m *MetricsService) GenerationEvaluated() {
	if m == nil {
		return
	}
	m.generations.Inc()
}

// RunCompleted records a successful run.
func (m *MetricsService) RunCompleted(fitness float64, duration time.Duration) {
	if m == nil {
		return
	}
	m.runsFinished.WithLabelValues("completed").Inc()
	m.runDuration.Observe(duration.Seconds())
	m.lastFitness.Set(fitness)
}

// RunFailed records a failed run.
func (m *MetricsService) RunFailed() {
	if m == nil {
		return
	}
	m.runsFinished.WithLabelValues("failed").Inc()
}

// RecordProgressLookup tracks whether progress was served from cache.
func (m *MetricsService) RecordProgressLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.progressLookups.WithLabelValues(result).Inc()
}
