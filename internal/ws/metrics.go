package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_active_rooms",
		Help: "Number of live game rooms.",
	})

	metricActions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_actions_total",
		Help: "Game actions submitted over websocket.",
	})

	metricRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_action_rejections_total",
		Help: "Game actions rejected by validation.",
	}, []string{"code"})
)
