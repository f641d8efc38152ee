package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Metrics owns its registry so tests can build as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	decisions      *prometheus.CounterVec
	cascades       *prometheus.CounterVec
	referenceCodes *prometheus.CounterVec
	errors         *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	idempotency  *prometheus.CounterVec

	dbOpen  prometheus.Gauge
	dbInUse prometheus.Gauge
	dbIdle  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_decisions_total",
			Help: "Approval decisions applied, by document type and decision.",
		}, []string{"type", "decision"}),
		cascades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_cascades_total",
			Help: "Downstream documents created by approval cascades.",
		}, []string{"from", "to"}),
		referenceCodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_reference_codes_total",
			Help: "Reference codes issued, by prefix.",
		}, []string{"prefix"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_errors_total",
			Help: "Workflow operations rejected, by error kind.",
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		idempotency: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_idempotency_total",
			Help: "Idempotency guard outcomes on mutating requests.",
		}, []string{"outcome"}),
		dbOpen:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "database_connections_open", Help: "Open database connections."}),
		dbInUse: prometheus.NewGauge(prometheus.GaugeOpts{Name: "database_connections_in_use", Help: "Database connections in use."}),
		dbIdle:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "database_connections_idle", Help: "Idle database connections."}),
	}
	m.reg.MustRegister(
		m.decisions, m.cascades, m.referenceCodes, m.errors,
		m.httpRequests, m.httpDuration, m.idempotency,
		m.dbOpen, m.dbInUse, m.dbIdle,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) RecordDecision(docType, decision string) {
	m.decisions.WithLabelValues(docType, decision).Inc()
}

func (m *Metrics) RecordCascade(from, to string) {
	m.cascades.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordReferenceCode(prefix string) {
	m.referenceCodes.WithLabelValues(prefix).Inc()
}

func (m *Metrics) RecordError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) RecordIdempotency(outcome string) {
	m.idempotency.WithLabelValues(outcome).Inc()
}

// UpdateDatabaseConnections copies the pool stats into the gauges.
func (m *Metrics) UpdateDatabaseConnections(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	s := sqlDB.Stats()
	m.dbOpen.Set(float64(s.OpenConnections))
	m.dbInUse.Set(float64(s.InUse))
	m.dbIdle.Set(float64(s.Idle))
	return nil
}

// Collect refreshes the database gauges every interval until ctx is done.
func (m *Metrics) Collect(ctx context.Context, db *gorm.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = m.UpdateDatabaseConnections(db)
		}
	}
}
