package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Entry metrics
	EntriesCreated *prometheus.CounterVec
	EntryMutations *prometheus.CounterVec
	EntryErrors    *prometheus.CounterVec
	CreateDuration prometheus.Histogram

	// Invoice metrics
	InvoiceSettlements prometheus.Counter
	EntriesSettled     prometheus.Counter

	// Account metrics
	AccountsCreated prometheus.Counter
	BalanceQueries  *prometheus.CounterVec

	// Snapshot metrics
	SnapshotsWritten  prometheus.Counter
	RecomputeDuration prometheus.Histogram
	RecomputeFailures prometheus.Counter

	// API metrics
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	IdempotentReplays prometheus.Counter

	// Database metrics
	DBRetries *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec
}

// New creates all Prometheus metrics and registers them with reg. A nil reg
// leaves the metrics unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Entry metrics
		EntriesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_entries_created_total",
				Help: "Total number of transactions persisted by type",
			},
			[]string{"type"},
		),
		EntryMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_entry_mutations_total",
				Help: "Total number of updates and deletes by scope",
			},
			[]string{"operation", "scope"},
		),
		EntryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_entry_errors_total",
				Help: "Total number of failed entry operations by error class",
			},
			[]string{"operation", "class"},
		),
		CreateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletledger_create_duration_seconds",
			Help:    "Duration of transaction creation",
			Buckets: prometheus.DefBuckets,
		}),

		// Invoice metrics
		InvoiceSettlements: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_invoice_settlements_total",
			Help: "Total number of paid transfers that settled a credit card invoice",
		}),
		EntriesSettled: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_entries_settled_total",
			Help: "Total number of unpaid expenses marked paid by invoice settlement",
		}),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		BalanceQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_balance_queries_total",
				Help: "Total balance queries by kind",
			},
			[]string{"kind"},
		),

		// Snapshot metrics
		SnapshotsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_snapshots_written_total",
			Help: "Total number of daily snapshot rows upserted",
		}),
		RecomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletledger_recompute_duration_seconds",
			Help:    "Duration of snapshot recomputation per account",
			Buckets: prometheus.DefBuckets,
		}),
		RecomputeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_recompute_failures_total",
			Help: "Total number of failed post-commit snapshot recomputations",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		IdempotentReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_idempotent_replays_total",
			Help: "Total number of responses replayed for a repeated idempotency key",
		}),

		// Database metrics
		DBRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_db_retries_total",
				Help: "Total retried database operations by postgres error code",
			},
			[]string{"code"},
		),

		// Redis metrics
		RedisOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),
	}
}
