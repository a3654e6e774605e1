package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks snapshot cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thema_cache_hits_total",
			Help: "Total number of master data snapshot cache hits",
		},
	)

	// CacheMisses tracks snapshot cache misses, expired entries included
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thema_cache_misses_total",
			Help: "Total number of master data snapshot cache misses",
		},
	)

	// CacheSize tracks bytes written to the cache
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thema_cache_size_bytes",
			Help: "Bytes of master data snapshots written to the cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thema_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
