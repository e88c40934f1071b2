package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Sandbox execution metrics
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec

	// Test-case store metrics
	StoreOps     *prometheus.CounterVec
	KeyRotations prometheus.Counter

	// Suite metrics
	SuitesTotal *prometheus.CounterVec
	RunsActive  prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests   int64
	TotalErrors     int64
	TotalExecutions int64
	FailedRuns      int64
	TotalDuration   float64 // sum of all request durations
	RequestCount    int64   // count for averaging
	UptimeSeconds   float64
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Sandbox execution metrics
		ExecutionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_sandbox_executions_total",
				Help: "Total number of sandboxed executions",
			},
			[]string{"strategy", "status"},
		),
		ExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_sandbox_execution_duration_seconds",
				Help:    "Sandboxed execution duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"strategy"},
		),

		// Test-case store metrics
		StoreOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_store_operations_total",
				Help: "Total number of encrypted store operations",
			},
			[]string{"action", "status"},
		),
		KeyRotations: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_store_key_rotations_total",
				Help: "Total number of encryption key rotations",
			},
		),

		// Suite metrics
		SuitesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_suites_total",
				Help: "Total number of test suite runs",
			},
			[]string{"status"},
		),
		RunsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_runs_active",
				Help: "Number of suite runs currently executing",
			},
		),

		// WebSocket metrics
		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordExecution records one sandboxed execution. Satisfies the
// executor's metrics hook.
func (m *Metrics) RecordExecution(strategy string, success bool, elapsed time.Duration) {
	m.ExecutionsTotal.WithLabelValues(strategy, statusLabel(success)).Inc()
	m.ExecutionDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())

	m.mu.Lock()
	m.snapshot.TotalExecutions++
	m.mu.Unlock()
}

// RecordStoreOp records one encrypted store operation. Satisfies the
// store's metrics hook.
func (m *Metrics) RecordStoreOp(action string, success bool) {
	m.StoreOps.WithLabelValues(action, statusLabel(success)).Inc()
}

// RecordKeyRotation records one key rotation
func (m *Metrics) RecordKeyRotation() {
	m.KeyRotations.Inc()
}

// RecordSuite records one completed suite run
func (m *Metrics) RecordSuite(passed bool) {
	m.SuitesTotal.WithLabelValues(statusLabel(passed)).Inc()
	if !passed {
		m.mu.Lock()
		m.snapshot.FailedRuns++
		m.mu.Unlock()
	}
}

// IncRunsActive increments the in-flight suite gauge
func (m *Metrics) IncRunsActive() {
	m.RunsActive.Inc()
}

// DecRunsActive decrements the in-flight suite gauge
func (m *Metrics) DecRunsActive() {
	m.RunsActive.Dec()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns the current counters for the JSON metrics API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
