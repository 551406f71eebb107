package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	connectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_active",
		Help: "Currently bound websocket connections",
	})
	lobbySize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lobby_users",
		Help: "Users currently waiting in the PvP lobby",
	})
	matchesActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "matches_active",
		Help: "Live match sessions in the registry",
	})
	shotsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shots_resolved_total",
			Help: "Resolved shots by outcome",
		},
		[]string{"outcome"},
	)
	matchesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matches_finished_total",
			Help: "Finished matches by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(connectionsActive, lobbySize, matchesActive, shotsResolved, matchesFinished)
}
