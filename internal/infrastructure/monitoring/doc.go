// Package monitoring provides Prometheus metrics for the navigation
// service: HTTP surface metrics, per-operation navigation counters and
// durations, stack depth gauges and reconciliation outcomes.
//
// Metrics register on the default registry via promauto; the server exposes
// them on /metrics.
package monitoring
