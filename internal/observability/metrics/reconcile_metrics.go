package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels stamped onto every metric.
type Config struct {
	ServiceName string
	Environment string
}

// ReconcileMetrics observes webhook reconciliation outcomes. Labels stay
// low-cardinality: program and disposition, never event or subscription
// ids.
type ReconcileMetrics struct {
	dispositions *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	duplicates   *prometheus.CounterVec
	fatals       *prometheus.CounterVec
}

var (
	reconcileMetricsOnce sync.Once
	reconcileMetrics     *ReconcileMetrics
)

func Reconcile() *ReconcileMetrics {
	return ReconcileWithConfig(Config{})
}

func ReconcileWithConfig(cfg Config) *ReconcileMetrics {
	reconcileMetricsOnce.Do(func() {
		reconcileMetrics = newReconcileMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return reconcileMetrics
}

func ResetReconcileMetricsForTest() {
	reconcileMetricsOnce = sync.Once{}
	reconcileMetrics = nil
}

func newReconcileMetrics(registerer prometheus.Registerer, cfg Config) *ReconcileMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "billingsync"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	dispositions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "billingsync_webhook_dispositions_total",
			Help:        "Webhook deliveries by program and final disposition.",
			ConstLabels: constLabels,
		},
		[]string{"program", "disposition"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "billingsync_reconcile_duration_seconds",
			Help: "End-to-end reconciliation latency per delivery.",
			Buckets: []float64{
				0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
			},
			ConstLabels: constLabels,
		},
		[]string{"program", "disposition"},
	)

	duplicates := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "billingsync_webhook_duplicates_total",
			Help:        "Deliveries short-circuited by the idempotency ledger.",
			ConstLabels: constLabels,
		},
		[]string{"program"},
	)

	fatals := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "billingsync_webhook_fatals_total",
			Help:        "Deliveries rejected for human investigation, by reason.",
			ConstLabels: constLabels,
		},
		[]string{"program", "reason"},
	)

	registerer.MustRegister(
		dispositions,
		duration,
		duplicates,
		fatals,
	)

	return &ReconcileMetrics{
		dispositions: dispositions,
		duration:     duration,
		duplicates:   duplicates,
		fatals:       fatals,
	}
}

func (m *ReconcileMetrics) ObserveDisposition(program, disposition string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dispositions.WithLabelValues(program, disposition).Inc()
	m.duration.WithLabelValues(program, disposition).Observe(elapsed.Seconds())
}

func (m *ReconcileMetrics) IncDuplicate(program string) {
	if m == nil {
		return
	}
	m.duplicates.WithLabelValues(program).Inc()
}

func (m *ReconcileMetrics) IncFatal(program, reason string) {
	if m == nil {
		return
	}
	m.fatals.WithLabelValues(program, reason).Inc()
}
