package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the navigation service.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Navigation metrics
	NavOps        *prometheus.CounterVec
	NavOpDuration *prometheus.HistogramVec
	StackDepth    *prometheus.GaugeVec

	// Reconciliation metrics
	ReconcileEvents *prometheus.CounterVec

	// Session metrics
	SessionsSaved    prometheus.Counter
	SessionsRestored prometheus.Counter

	// Host adapter metrics
	WSConnections prometheus.Gauge
	HostCommands  *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates and registers the metrics collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navd_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "navd_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		NavOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navd_nav_operations_total",
				Help: "Total number of navigation operations",
			},
			[]string{"op", "status"},
		),
		NavOpDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "navd_nav_operation_duration_seconds",
				Help:    "Navigation operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"op"},
		),
		StackDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "navd_stack_depth",
				Help: "Current depth of each navigation stack",
			},
			[]string{"stack"},
		),

		ReconcileEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navd_reconcile_events_total",
				Help: "Host pop notifications by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		SessionsSaved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "navd_sessions_saved_total",
				Help: "Total number of navigation sessions saved",
			},
		),
		SessionsRestored: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "navd_sessions_restored_total",
				Help: "Total number of navigation sessions restored",
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "navd_ws_connections",
				Help: "Number of attached renderer connections",
			},
		),
		HostCommands: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navd_host_commands_total",
				Help: "Commands sent to the host by op and status",
			},
			[]string{"op", "status"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "navd_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	go m.updateUptime()
	return m
}

// updateUptime continuously updates the uptime metric.
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordHostCommand records a command sent to the host.
func (m *Metrics) RecordHostCommand(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.HostCommands.WithLabelValues(op, status).Inc()
}
