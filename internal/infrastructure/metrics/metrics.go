package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger entry metrics
	EntriesCreated   prometheus.Counter
	EntriesReversed  prometheus.Counter
	EntriesVoided    prometheus.Counter
	EntryAmount      prometheus.Histogram
	ValidationErrors *prometheus.CounterVec

	// Sync metrics
	SyncPasses       *prometheus.CounterVec
	SyncDuration     prometheus.Histogram
	SyncRecords      *prometheus.CounterVec
	ReauthTriggered  prometheus.Counter
	SyncLockConflict prometheus.Counter

	// Reconciliation metrics
	ReconciliationRuns    prometheus.Counter
	ReconciliationMatched prometheus.Histogram
	DiscrepanciesFound    *prometheus.CounterVec
	StatementsImported    prometheus.Counter

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Audit metrics
	AuditRecordsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Ledger entry metrics
		EntriesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgersync_entries_created_total",
			Help: "Total number of ledger entries created",
		}),
		EntriesReversed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgersync_entries_reversed_total",
			Help: "Total number of ledger entries reversed",
		}),
		EntriesVoided: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgersync_entries_voided_total",
			Help: "Total number of ledger entries voided",
		}),
		EntryAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgersync_entry_amount",
			Help:    "Ledger entry amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		ValidationErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_validation_errors_total",
				Help: "Total number of entry validation errors by type",
			},
			[]string{"error_type"},
		),

		// Sync metrics
		SyncPasses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_sync_passes_total",
				Help: "Total sync passes by outcome",
			},
			[]string{"outcome"},
		),
		SyncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgersync_sync_duration_seconds",
			Help:    "Duration of sync passes",
			Buckets: prometheus.DefBuckets,
		}),
		SyncRecords: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_sync_records_total",
				Help: "Total feed records applied by change kind",
			},
			[]string{"kind"},
		),
		ReauthTriggered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgersync_reauth_triggered_total",
			Help: "Total connections flipped to requires_reauth",
		}),
		SyncLockConflict: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgersync_sync_lock_conflicts_total",
			Help: "Total sync passes skipped because the lock was held",
		}),

		// Reconciliation metrics
		ReconciliationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgersync_reconciliation_runs_total",
			Help: "Total reconciliation runs",
		}),
		ReconciliationMatched: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgersync_reconciliation_matched",
			Help:    "Matched transactions per reconciliation run",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		}),
		DiscrepanciesFound: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_discrepancies_total",
				Help: "Total reconciliation discrepancies by type",
			},
			[]string{"type"},
		),
		StatementsImported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgersync_statements_imported_total",
			Help: "Total bank statements imported",
		}),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgersync_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ledgersync_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Audit metrics
		AuditRecordsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_audit_records_total",
				Help: "Total audit records created",
			},
			[]string{"kind", "origin"},
		),
	}
}
