// Package metrics provides Prometheus metrics for the teacher toolkit MCP server.
// It tracks tool calls, catalog query shapes, cache performance, favorites and link checks.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const (
	Namespace = "teacher_toolkit_mcp"
)

var (
	// RequestsTotal counts total MCP tool calls by tool name and status
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "requests_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// RequestDuration measures request latency distribution
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "request_duration_seconds",
		Help:      "Request latency distribution by tool",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .5, 1, 5, 10},
	}, []string{"tool"})

	// RequestInFlight tracks currently executing requests
	RequestInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "requests_in_flight",
		Help:      "Number of requests currently being processed",
	}, []string{"tool"})

	// PanicsRecovered counts recovered panics
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in tool handlers",
	}, []string{"tool"})

	// QueryResults observes how many records matched a catalog query
	QueryResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "query_results",
		Help:      "Number of records matching a catalog query before pagination",
		Buckets:   []float64{0, 1, 3, 9, 18, 27, 50, 100},
	})

	// EmptyResults counts queries that hit the empty state, by category kind
	EmptyResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "empty_results_total",
		Help:      "Catalog queries with no matching records",
	}, []string{"view"})

	// QueryFilters counts which filters are active on queries
	QueryFilters = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "query_filters_total",
		Help:      "Active filters per catalog query",
	}, []string{"filter"})

	// CacheHits counts cache hits by cache name
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_hits_total",
		Help:      "Total cache hit count",
	}, []string{"cache"})

	// CacheMisses counts cache misses by cache name
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_misses_total",
		Help:      "Total cache miss count",
	}, []string{"cache"})

	// CacheSize tracks current cache entry count
	CacheSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "cache_entries",
		Help:      "Current number of cache entries",
	}, []string{"cache"})

	// FavoriteToggles counts favorite changes by direction
	FavoriteToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "favorite_toggles_total",
		Help:      "Favorite toggles by action (added, removed)",
	}, []string{"action"})

	// ThemeChanges counts explicit theme choices
	ThemeChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "theme_changes_total",
		Help:      "Theme preference changes by resulting theme",
	}, []string{"theme"})

	// Shares counts share requests and whether the clipboard copy worked
	Shares = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "shares_total",
		Help:      "Share requests by clipboard outcome",
	}, []string{"copied"})

	// BrowseSessions tracks live browse sessions
	BrowseSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "browse_sessions",
		Help:      "Number of live browse sessions",
	})

	// LinkChecksTotal counts link probes by outcome
	LinkChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "link_checks_total",
		Help:      "Link probes by outcome (ok, broken, cached)",
	}, []string{"outcome"})

	// LinkCheckLatency measures link probe latency
	LinkCheckLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "link_check_latency_seconds",
		Help:      "Link probe latency",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTPRequestsTotal counts HTTP transport requests
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method and status",
	}, []string{"method", "status"})

	// HTTPRequestDuration measures HTTP request latency
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency distribution",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// RecordRequest records a completed request with its duration and status
func RecordRequest(tool string, duration float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	RequestsTotal.WithLabelValues(tool, status).Inc()
	RequestDuration.WithLabelValues(tool).Observe(duration)
}

// RecordQuery records the shape of a catalog query. view is "all",
// "favorites" or "category"; filters lists the active non-category filters.
func RecordQuery(view string, matched int, filters ...string) {
	QueryResults.Observe(float64(matched))
	if matched == 0 {
		EmptyResults.WithLabelValues(view).Inc()
	}
	for _, f := range filters {
		QueryFilters.WithLabelValues(f).Inc()
	}
}

// RecordCacheAccess records a cache hit or miss
func RecordCacheAccess(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
	} else {
		CacheMisses.WithLabelValues(cache).Inc()
	}
}

// SetCacheSize updates the current cache size gauge
func SetCacheSize(cache string, size int) {
	CacheSize.WithLabelValues(cache).Set(float64(size))
}

// RecordFavoriteToggle records a favorite being added or removed
func RecordFavoriteToggle(added bool) {
	action := "removed"
	if added {
		action = "added"
	}
	FavoriteToggles.WithLabelValues(action).Inc()
}

// RecordShare records a share request
func RecordShare(copied bool) {
	Shares.WithLabelValues(strconv.FormatBool(copied)).Inc()
}

// RecordLinkCheck records one link probe
func RecordLinkCheck(ok, cached bool, seconds float64) {
	outcome := "broken"
	switch {
	case cached:
		outcome = "cached"
	case ok:
		outcome = "ok"
	}
	LinkChecksTotal.WithLabelValues(outcome).Inc()
	if !cached {
		LinkCheckLatency.Observe(seconds)
	}
}
