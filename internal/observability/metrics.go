// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// VotesTotal counts recorded vote operations by target kind and outcome
	// (created, replaced, duplicate).
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_votes_total",
		Help: "Total vote operations by target kind and outcome",
	}, []string{"target_kind", "outcome"})

	// ScoreRecomputes counts full recomputations of derived scores by kind
	// (post, user).
	ScoreRecomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_score_recomputes_total",
		Help: "Total recomputations of engagement scores and user ratings",
	}, []string{"kind"})

	// CascadeDeletions counts rows removed by post deactivation cascades,
	// labelled by relation (favorites, subscriptions).
	CascadeDeletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_cascade_deletions_total",
		Help: "Total rows removed by post deactivation cascades",
	}, []string{"relation"})

	// RecomputeRetries counts retried ledger aggregate reads by kind.
	RecomputeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_score_recompute_retries_total",
		Help: "Total retried ledger aggregate reads during score recomputation",
	}, []string{"kind"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agora_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
