package filter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RecordsDropped tracks records excluded by each filter stage
var RecordsDropped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "asc_filter_records_dropped_total",
		Help: "Total number of records excluded by client-side filter stages",
	},
	[]string{"stage"},
)
