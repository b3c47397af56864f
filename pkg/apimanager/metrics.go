package apimanager

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CacheHits counts logical requests served from the cache.
	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "apimanager_cache_hits_total",
			Help: "Logical requests served from the cache without a live call",
		},
	)

	// CacheMisses counts logical requests that missed the cache.
	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "apimanager_cache_misses_total",
			Help: "Logical requests that missed the cache",
		},
	)

	// LiveCalls counts admitted live calls by outcome.
	LiveCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apimanager_live_calls_total",
			Help: "Live calls made against the remote API",
		},
		[]string{"status"},
	)

	// RateLimited counts requests denied by the local quota window.
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "apimanager_rate_limited_total",
			Help: "Requests denied locally because the quota window was exhausted",
		},
	)

	// QuotaRemaining tracks the slots left in the current window.
	QuotaRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "apimanager_quota_remaining",
			Help: "Remaining admissions in the current quota window",
		},
	)
)

func init() {
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(LiveCalls)
	prometheus.MustRegister(RateLimited)
	prometheus.MustRegister(QuotaRemaining)
}
