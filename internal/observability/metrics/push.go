package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActivePushConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "push_connections_active",
			Help: "Number of currently open push channels",
		},
	)

	BoundPushConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "push_connections_bound",
			Help: "Number of push channels bound to a username",
		},
	)

	PushEventsDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_events_delivered_total",
			Help: "Total number of push events delivered by policy",
		},
		[]string{"policy"},
	)

	PushEventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_events_dropped_total",
			Help: "Total number of push events dropped by reason",
		},
		[]string{"reason"},
	)
)
