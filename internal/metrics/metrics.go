package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CollectorMetrics holds the ingestion pipeline counters.
type CollectorMetrics struct {
	DatagramsReceived *prometheus.CounterVec
	DatagramsDropped  *prometheus.CounterVec
	RecordsPersisted  *prometheus.CounterVec
	UnapprovedDropped *prometheus.CounterVec
	ParseEmpty        prometheus.Counter
	PersistErrors     prometheus.Counter
	ProcessingTime    prometheus.Histogram

	registry *prometheus.Registry
}

// NewCollectorMetrics creates the metric set on its own registry to avoid
// duplicate registration when multiple components run in one process.
func NewCollectorMetrics() *CollectorMetrics {
	registry := prometheus.NewRegistry()

	m := &CollectorMetrics{
		registry: registry,
		DatagramsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syslog_datagrams_received_total",
				Help: "Total UDP datagrams received, by source device",
			},
			[]string{"device"},
		),
		DatagramsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syslog_datagrams_dropped_total",
				Help: "Total datagrams dropped, by reason",
			},
			[]string{"reason"},
		),
		RecordsPersisted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syslog_records_persisted_total",
				Help: "Total traffic records persisted, by source device",
			},
			[]string{"device"},
		),
		UnapprovedDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syslog_unapproved_dropped_total",
				Help: "Total datagrams from unapproved devices",
			},
			[]string{"device"},
		),
		ParseEmpty: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "syslog_parse_empty_total",
				Help: "Total datagrams that yielded no structured fields",
			},
		),
		PersistErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "syslog_persist_errors_total",
				Help: "Total record inserts that failed",
			},
		),
		ProcessingTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "syslog_datagram_processing_seconds",
				Help:    "Per-datagram processing time",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(
		m.DatagramsReceived,
		m.DatagramsDropped,
		m.RecordsPersisted,
		m.UnapprovedDropped,
		m.ParseEmpty,
		m.PersistErrors,
		m.ProcessingTime,
	)

	return m
}

// Registry returns the registry backing this metric set.
func (m *CollectorMetrics) Registry() *prometheus.Registry {
	return m.registry
}
