package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ledger
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "point_transactions_total",
			Help: "Committed point transactions",
		},
		[]string{"type"}, // CHARGE|USE
	)
	TransactionsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "point_transactions_failed_total",
			Help: "Rejected point transactions",
		},
		[]string{"type", "reason"},
	)

	// Sequencer
	SequencerWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "point_sequencer_wait_seconds",
			Help:    "Time spent waiting for a per-user scope.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)
	SequencerScopes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "point_sequencer_scopes",
			Help: "Per-user scopes created since start",
		},
	)

	// Audit export queue
	AuditQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_queue_depth",
			Help: "Current audit export queue depth",
		},
	)
	AuditExportFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_export_failed_total",
			Help: "Records the audit exporter could not write",
		},
	)

	initOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

// Init registers the collectors with the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			TransactionsTotal,
			TransactionsFailed,
			SequencerWait,
			SequencerScopes,
			AuditQueueDepth,
			AuditExportFailed,
		)
	})
}
