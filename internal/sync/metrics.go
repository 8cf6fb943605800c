package sync

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments the engine. Register one per process; tests can pass
// their own registry for isolation.
type Metrics struct {
	Attempts       prometheus.Counter
	Failures       *prometheus.CounterVec
	Duration       prometheus.Histogram
	RecordsPushed  prometheus.Counter
	RecordsApplied prometheus.Counter
}

// NewMetrics creates and registers the sync metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obraledger_sync_attempts_total",
			Help: "Sync attempts that passed the in-progress and offline guards.",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "obraledger_sync_failures_total",
			Help: "Failed sync attempts by reason.",
		}, []string{"reason"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "obraledger_sync_duration_seconds",
			Help:    "Wall time of sync attempts.",
			Buckets: prometheus.DefBuckets,
		}),
		RecordsPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obraledger_sync_records_pushed_total",
			Help: "Local records acknowledged by the authority.",
		}),
		RecordsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obraledger_sync_records_applied_total",
			Help: "Authority records applied to the local store.",
		}),
	}
	reg.MustRegister(m.Attempts, m.Failures, m.Duration, m.RecordsPushed, m.RecordsApplied)
	return m
}
