package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequestsTotal tracks every HTTP attempt against an upstream service
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinemap_upstream_requests_total",
			Help: "Total number of upstream HTTP attempts",
		},
		[]string{"service", "outcome"},
	)

	// UpstreamLatency tracks upstream attempt latency
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinemap_upstream_latency_seconds",
			Help:    "Upstream HTTP attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	// RetriesTotal tracks retries per layer ("transport" or "backoff")
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinemap_retries_total",
			Help: "Total number of retries scheduled",
		},
		[]string{"operation", "layer"},
	)

	// ResolutionsTotal tracks resolver outcomes
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinemap_resolutions_total",
			Help: "Total number of movie and location resolutions",
		},
		[]string{"kind", "outcome"},
	)

	// GeocodeStageTotal tracks which geocoding stage resolved a location
	GeocodeStageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinemap_geocode_stage_total",
			Help: "Geocoding stage that produced the first result",
		},
		[]string{"stage"},
	)

	// EnrichmentFallbacksTotal tracks encyclopedia fallbacks
	EnrichmentFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinemap_enrichment_fallbacks_total",
			Help: "Encyclopedia lookups that needed a fallback",
		},
		[]string{"fallback"},
	)

	// LocationsDropped tracks locations omitted from a partial result
	LocationsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinemap_locations_dropped_total",
			Help: "Locations omitted from an aggregated result",
		},
		[]string{"reason"},
	)

	// CacheLookupsTotal tracks record cache hits and misses
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinemap_cache_lookups_total",
			Help: "Record cache lookups",
		},
		[]string{"kind", "result"},
	)

	// DBConnectionPoolUsage tracks the percentage of used connections
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinemap_db_connection_pool_usage_percent",
			Help: "Percentage of database connection pool in use",
		},
	)
)
