package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var BookMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "book_mutations_total",
		Help: "Total number of book mutations by operation and result",
	},
	[]string{"operation", "result"},
)
