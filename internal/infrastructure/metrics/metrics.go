package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roastery-backend/internal/infrastructure/database"
)

// Metrics gom các prometheus collectors của service.
// Nil *Metrics là hợp lệ: mọi method đều no-op.
type Metrics struct {
	registry *prometheus.Registry

	reconcileOutcomes  *prometheus.CounterVec
	webhookRejections  *prometheus.CounterVec
	processorDuration  *prometheus.HistogramVec
	sessionDecisions   *prometheus.CounterVec
	sweepRecovered     prometheus.Counter
	eventPublishErrors prometheus.Counter

	poolAcquired prometheus.Gauge
	poolIdle     prometheus.Gauge
	poolTotal    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reconcileOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roastery",
			Name:      "payment_reconcile_total",
			Help:      "Reconciliation attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		webhookRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roastery",
			Name:      "payment_webhook_rejected_total",
			Help:      "Processor notifications rejected before processing.",
		}, []string{"reason"}),
		processorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "roastery",
			Name:      "processor_request_duration_seconds",
			Help:      "Latency of outbound processor calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "result"}),
		sessionDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roastery",
			Name:      "session_decisions_total",
			Help:      "Session authority decisions by operation and result.",
		}, []string{"operation", "result"}),
		sweepRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roastery",
			Name:      "payment_sweep_recovered_total",
			Help:      "Orders constructed by the stuck-intent sweep.",
		}),
		eventPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roastery",
			Name:      "event_publish_errors_total",
			Help:      "Order events that failed to publish.",
		}),
		poolAcquired: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roastery", Name: "db_pool_acquired_conns", Help: "Acquired connections.",
		}),
		poolIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roastery", Name: "db_pool_idle_conns", Help: "Idle connections.",
		}),
		poolTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roastery", Name: "db_pool_total_conns", Help: "Total connections.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reconcileOutcomes,
		m.webhookRejections,
		m.processorDuration,
		m.sessionDecisions,
		m.sweepRecovered,
		m.eventPublishErrors,
		m.poolAcquired,
		m.poolIdle,
		m.poolTotal,
	)

	return m
}

// Handler serves /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry (tests)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ReconcileOutcome(source, outcome string) {
	if m == nil {
		return
	}
	m.reconcileOutcomes.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) WebhookRejected(reason string) {
	if m == nil {
		return
	}
	m.webhookRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) ProcessorCall(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.processorDuration.WithLabelValues(operation, result).Observe(time.Since(started).Seconds())
}

func (m *Metrics) SessionDecision(operation, result string) {
	if m == nil {
		return
	}
	m.sessionDecisions.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) SweepRecovered(n int) {
	if m == nil {
		return
	}
	m.sweepRecovered.Add(float64(n))
}

func (m *Metrics) EventPublishFailed() {
	if m == nil {
		return
	}
	m.eventPublishErrors.Inc()
}

// ObservePool implements database.PoolObserver
func (m *Metrics) ObservePool(stats database.PoolStats) {
	if m == nil {
		return
	}
	m.poolAcquired.Set(float64(stats.AcquiredConns))
	m.poolIdle.Set(float64(stats.IdleConns))
	m.poolTotal.Set(float64(stats.TotalConns))
}
