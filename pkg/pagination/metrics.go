package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched tracks pages fetched by the aggregator
	PagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asc_pagination_pages_total",
			Help: "Total number of pages fetched by the pagination aggregator",
		},
	)

	// ItemsAggregated observes the number of records per completed aggregation
	ItemsAggregated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "asc_pagination_items",
			Help:    "Number of records returned per aggregation",
			Buckets: []float64{0, 10, 50, 200, 1000, 5000, 20000},
		},
	)

	// Failures tracks aborted aggregations by reason
	Failures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asc_pagination_failures_total",
			Help: "Total number of aborted aggregations",
		},
		[]string{"reason"}, // "fetch", "cycle", "max_pages"
	)
)
