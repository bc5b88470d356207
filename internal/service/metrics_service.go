package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// draw execution pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	sweepTotal      prometheus.Counter
	sweepSkipped    *prometheus.CounterVec
	executionTotal  *prometheus.CounterVec
	emailTotal      *prometheus.CounterVec
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

	sweepTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "draw_sweeps_total",
		Help: "Total number of scheduler sweep passes",
	})

	sweepSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draw_sweep_skipped_total",
		Help: "Due draws skipped by the sweep, by reason",
	}, []string{"reason"})

	executionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draw_executions_total",
		Help: "Draw execution attempts, by outcome",
	}, []string{"outcome"})

	emailTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draw_emails_total",
		Help: "Result emails attempted, by delivery status",
	}, []string{"status"})

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestDuration,
		requestTotal,
		sweepTotal,
		sweepSkipped,
		executionTotal,
		emailTotal,
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		sweepTotal:      sweepTotal,
		sweepSkipped:    sweepSkipped,
		executionTotal:  executionTotal,
		emailTotal:      emailTotal,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one request observation.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	code := strconv.Itoa(status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
}

// RecordSweep counts one sweep pass.
func (s *MetricsService) RecordSweep() {
	if s == nil {
		return
	}
	s.sweepTotal.Inc()
}

// RecordSweepSkip counts a skipped due draw.
func (s *MetricsService) RecordSweepSkip(reason string) {
	if s == nil {
		return
	}
	s.sweepSkipped.WithLabelValues(reason).Inc()
}

// RecordExecution counts one draw execution attempt.
func (s *MetricsService) RecordExecution(outcome string) {
	if s == nil {
		return
	}
	s.executionTotal.WithLabelValues(outcome).Inc()
}

// RecordEmail counts one attempted result email.
func (s *MetricsService) RecordEmail(success bool) {
	if s == nil {
		return
	}
	status := "sent"
	if !success {
		status = "failed"
	}
	s.emailTotal.WithLabelValues(status).Inc()
}
