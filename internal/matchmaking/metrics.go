package matchmaking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmaking_searches_total",
			Help: "Total number of matchmaking searches started",
		},
	)

	revealsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmaking_reveals_total",
			Help: "Total number of candidates revealed",
		},
	)

	cancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmaking_cancellations_total",
			Help: "Total number of searches cancelled",
		},
	)

	poolSizes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchmaking_pool_size",
			Help:    "Distribution of candidate pool sizes at search start",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

func RecordSearchStarted(poolSize int) {
	searchesTotal.Inc()
	poolSizes.Observe(float64(poolSize))
}

func RecordReveal() {
	revealsTotal.Inc()
}

func RecordSearchCancelled() {
	cancellationsTotal.Inc()
}
