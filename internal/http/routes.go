package http

import (
	"time"

	"edu_arcade/internal/config"
	"edu_arcade/internal/http/handlers"
	"edu_arcade/internal/http/middleware"
	"edu_arcade/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the host endpoints. limiter may be disabled, in
// which case /ws falls back to a per-instance limit.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, hub *ws.Hub, limiter *middleware.Limiter, version string) {
	var redis handlers.Pinger
	if limiter.Enabled() {
		redis = limiter
	}
	healthHandler := handlers.NewHealthHandler(redis, hub, version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	window := time.Duration(cfg.WSRateWindow) * time.Second
	connectRL := middleware.MemoryRateLimit(cfg.WSRateLimit, window)
	if limiter.Enabled() {
		connectRL = middleware.RedisRateLimit(limiter, cfg.WSRateLimit, window)
	}
	r.GET("/ws", connectRL, ws.HandleWS(hub, cfg.AllowedOrigin))
}
