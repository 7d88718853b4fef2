package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Limiter decisions by key scope: "ip" for /ws connects, "act_rl" for
// in-room actions, "memory" for the per-instance fallback.
var (
	LimiterDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcade_limiter_decisions_total",
			Help: "Rate limiter decisions for connects and player actions",
		},
		[]string{"scope", "decision"},
	)
	LimiterErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arcade_limiter_redis_errors_total",
			Help: "Redis failures that let a connect or action through unchecked",
		},
	)
)

func init() {
	prometheus.MustRegister(LimiterDecisions, LimiterErrors)
}

func countDecision(scope string, allowed bool) {
	decision := "allowed"
	if !allowed {
		decision = "blocked"
	}
	LimiterDecisions.WithLabelValues(scope, decision).Inc()
}
