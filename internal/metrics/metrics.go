// Package metrics exposes the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tabletop_rooms_active",
		Help: "Rooms currently held in the store.",
	})

	PlayersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tabletop_players_connected",
		Help: "Live player connections.",
	})

	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tabletop_events_total",
		Help: "Events processed, by kind and admission result.",
	}, []string{"kind", "result"})

	BroadcastAborts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tabletop_broadcast_aborts_total",
		Help: "Broadcasts aborted because a member was unreachable.",
	})
)
