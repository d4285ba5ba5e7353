// Package metrics provides Prometheus metrics for incidentsync.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched counts page requests by resource and outcome.
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incidentsync",
			Name:      "pages_fetched_total",
			Help:      "Total number of page requests issued by bulk collection",
		},
		[]string{"resource", "status"},
	)

	// CollectionRuns counts finished collection runs by stop reason.
	CollectionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incidentsync",
			Name:      "collection_runs_total",
			Help:      "Total number of bulk collection runs by stop reason",
		},
		[]string{"resource", "reason"},
	)

	// CollectionItems observes how many items a run returned.
	CollectionItems = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "incidentsync",
			Name:      "collection_items",
			Help:      "Distribution of items returned per collection run",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 750, 1000, 2500},
		},
		[]string{"resource"},
	)

	// CacheLookups counts cache hits and misses by resource class.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incidentsync",
			Name:      "cache_lookups_total",
			Help:      "Total number of resource cache lookups",
		},
		[]string{"class", "result"},
	)

	// BudgetBytes tracks the estimated size of the last stored value per class.
	BudgetBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "incidentsync",
			Name:      "budget_estimated_bytes",
			Help:      "Estimated in-memory size of the most recently stored collection",
		},
		[]string{"class"},
	)

	// BudgetSignals counts High and Critical budget classifications.
	BudgetSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incidentsync",
			Name:      "budget_signals_total",
			Help:      "Total number of budget threshold crossings",
		},
		[]string{"level"},
	)

	// ChannelState exposes the live channel state (0 disconnected .. 4 failed).
	ChannelState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "incidentsync",
			Name:      "channel_state",
			Help:      "Live channel state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting, 4=failed)",
		},
	)

	// ReconnectAttempts counts scheduled reconnects by transport.
	ReconnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incidentsync",
			Name:      "reconnect_attempts_total",
			Help:      "Total number of scheduled reconnect attempts",
		},
		[]string{"transport"},
	)

	// EventsReceived counts events by dedup outcome.
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incidentsync",
			Name:      "events_total",
			Help:      "Total number of live events by outcome",
		},
		[]string{"outcome"},
	)

	// UnseenNotifications tracks the unseen notification counter.
	UnseenNotifications = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "incidentsync",
			Name:      "notifications_unseen",
			Help:      "Number of notifications not yet acknowledged",
		},
	)
)

// RecordPage records one page request.
func RecordPage(resource, status string) {
	PagesFetched.WithLabelValues(resource, status).Inc()
}

// RecordRun records a finished collection run.
func RecordRun(resource, reason string, items int) {
	CollectionRuns.WithLabelValues(resource, reason).Inc()
	CollectionItems.WithLabelValues(resource).Observe(float64(items))
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(class string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(class, result).Inc()
}

// RecordBudget records the size estimate of a stored value and its level.
func RecordBudget(class, level string, bytes int64) {
	BudgetBytes.WithLabelValues(class).Set(float64(bytes))
	if level != "normal" {
		BudgetSignals.WithLabelValues(level).Inc()
	}
}

// RecordEvents records dedup outcomes for a batch.
func RecordEvents(admitted, suppressed int) {
	EventsReceived.WithLabelValues("admitted").Add(float64(admitted))
	EventsReceived.WithLabelValues("duplicate").Add(float64(suppressed))
}

// RecordDroppedEvent records an event dropped as malformed.
func RecordDroppedEvent() {
	EventsReceived.WithLabelValues("malformed").Inc()
}
