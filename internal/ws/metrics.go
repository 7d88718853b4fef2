package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Connections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcade_ws_connections",
			Help: "Open websocket connections",
		},
	)
	ActiveRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcade_rooms_active",
			Help: "Rooms currently hosted",
		},
	)
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcade_sessions_started_total",
			Help: "Sessions started by game kind",
		},
		[]string{"kind"},
	)
	SessionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcade_sessions_completed_total",
			Help: "Sessions completed by game kind and reason",
		},
		[]string{"kind", "reason"},
	)
	Answers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcade_answers_total",
			Help: "Answers resolved by game kind and correctness",
		},
		[]string{"kind", "correct"},
	)
)

func init() {
	prometheus.MustRegister(Connections)
	prometheus.MustRegister(ActiveRooms)
	prometheus.MustRegister(SessionsStarted)
	prometheus.MustRegister(SessionsCompleted)
	prometheus.MustRegister(Answers)
}
