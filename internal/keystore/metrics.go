package keystore

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	keyAccessTotal        *prometheus.CounterVec
	keyMutationTotal      *prometheus.CounterVec
	keystoreOpTotal       *prometheus.CounterVec
	auditWriteFailedTotal prometheus.Counter
	servicesGauge         prometheus.Gauge

	metricsOnce       sync.Once
	metricsRegistered bool
)

// InitMetrics registers the keystore metrics with the default registry.
// Safe to call more than once.
func InitMetrics() {
	metricsOnce.Do(func() {
		keyAccessTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keymixer_key_access_total",
				Help: "Total number of rotated key reads",
			},
			[]string{"service"},
		)

		keyMutationTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keymixer_key_mutation_total",
				Help: "Total number of keys added or revoked",
			},
			[]string{"service", "operation"},
		)

		keystoreOpTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keymixer_keystore_operation_total",
				Help: "Total number of keystore load and save operations",
			},
			[]string{"operation", "status"},
		)

		auditWriteFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "keymixer_audit_write_failed_total",
			Help: "Total number of audit events that could not be written",
		})

		servicesGauge = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "keymixer_services",
			Help: "Number of services with at least one usable key",
		})

		metricsRegistered = true
	})
}

// Metrics records engine activity. Calls are no-ops until InitMetrics runs.
type Metrics struct{}

// NewMetrics creates a Metrics recorder
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordAccess records a rotated key read
func (m *Metrics) RecordAccess(service string) {
	if m == nil || !metricsRegistered || keyAccessTotal == nil {
		return
	}
	keyAccessTotal.WithLabelValues(service).Inc()
}

// RecordMutation records an add or revoke
func (m *Metrics) RecordMutation(service, operation string) {
	if m == nil || !metricsRegistered || keyMutationTotal == nil {
		return
	}
	keyMutationTotal.WithLabelValues(service, operation).Inc()
}

// RecordOperation records a load or save outcome
func (m *Metrics) RecordOperation(operation string, err error) {
	if m == nil || !metricsRegistered || keystoreOpTotal == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	keystoreOpTotal.WithLabelValues(operation, status).Inc()
}

// RecordAuditFailure records a dropped audit event
func (m *Metrics) RecordAuditFailure() {
	if m == nil || !metricsRegistered || auditWriteFailedTotal == nil {
		return
	}
	auditWriteFailedTotal.Inc()
}

// SetServices records how many services currently have keys
func (m *Metrics) SetServices(n int) {
	if m == nil || !metricsRegistered || servicesGauge == nil {
		return
	}
	servicesGauge.Set(float64(n))
}
