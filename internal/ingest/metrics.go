package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles receiver metrics.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
	RecordsTotal  prometheus.Counter
	Latency       *prometheus.HistogramVec
}

// NewMetrics constructs the receiver metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dftlog_ingest_requests_total",
				Help: "Total batch upload requests by result",
			},
			[]string{"result"},
		),
		RecordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dftlog_ingest_records_total",
			Help: "Total newly stored measurement records",
		}),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dftlog_ingest_latency_seconds",
				Help:    "Batch upload handling latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.RecordsTotal, m.Latency)
	return m
}

// ObserveBatch records one handled batch request.
func (m *Metrics) ObserveBatch(result string, inserted int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(result).Inc()
	m.Latency.WithLabelValues(result).Observe(elapsed.Seconds())
	if inserted > 0 {
		m.RecordsTotal.Add(float64(inserted))
	}
}
