package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Counter: how many lookups were served from the cache.
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits.",
		},
	)

	// Counter: lookups that fell through to a recompute.
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses, including corrupt entries.",
		},
	)

	// Counter: entries the sweep moved into the archive.
	SweepArchivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_archived_total",
			Help: "Total number of cache entries archived by the sweep.",
		},
	)

	// Counter: entries the sweep could not relocate.
	SweepFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_failures_total",
			Help: "Total number of cache entries the sweep failed to archive.",
		},
	)

	// Counter: sequence records fully processed.
	RecordsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "records_processed_total",
			Help: "Total number of sequence records processed.",
		},
	)
)

// Register is called once in main() to register metrics.
func Register() {
	prometheus.MustRegister(
		CacheHitsTotal,
		CacheMissesTotal,
		SweepArchivedTotal,
		SweepFailuresTotal,
		RecordsProcessedTotal,
	)
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}
