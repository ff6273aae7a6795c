package metrics

import (
	"net/http"
	"time"
)

// Metrics interface for dependency injection
type Metrics interface {
	RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration)
	RecordAnalysis(level, status string)
	RecordClassification(outcome string)
	RecordRulesReload(status string)
	SetDBConnectionsActive(count float64)
	RecordDBQuery(operation, status string)
	Handler() http.Handler
}

// NoOpMetrics provides a no-op implementation
type NoOpMetrics struct{}

func (m *NoOpMetrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
}
func (m *NoOpMetrics) RecordAnalysis(level, status string)     {}
func (m *NoOpMetrics) RecordClassification(outcome string)     {}
func (m *NoOpMetrics) RecordRulesReload(status string)         {}
func (m *NoOpMetrics) SetDBConnectionsActive(count float64)    {}
func (m *NoOpMetrics) RecordDBQuery(operation, status string)  {}
func (m *NoOpMetrics) Handler() http.Handler                   { return http.NotFoundHandler() }

// Global metrics instance
var globalMetrics Metrics = &NoOpMetrics{}

// Init initializes metrics (no-op for now, can be extended with Prometheus)
func Init() {
}

// Set installs a metrics implementation, used by tests and alternative backends
func Set(m Metrics) {
	if m != nil {
		globalMetrics = m
	}
}

// Handler returns the metrics handler
func Handler() http.Handler {
	return globalMetrics.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	globalMetrics.RecordHTTPRequest(method, endpoint, statusCode, duration)
}

// RecordAnalysis records a completed route analysis by level and status
func RecordAnalysis(level, status string) {
	globalMetrics.RecordAnalysis(level, status)
}

// RecordClassification records an area classification outcome (zone, hotspot, unknown)
func RecordClassification(outcome string) {
	globalMetrics.RecordClassification(outcome)
}

// RecordRulesReload records a ruleset reload attempt
func RecordRulesReload(status string) {
	globalMetrics.RecordRulesReload(status)
}

// SetDBConnectionsActive sets the number of active database connections
func SetDBConnectionsActive(count float64) {
	globalMetrics.SetDBConnectionsActive(count)
}

// RecordDBQuery records database query metrics
func RecordDBQuery(operation, status string) {
	globalMetrics.RecordDBQuery(operation, status)
}
