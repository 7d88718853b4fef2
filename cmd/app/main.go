package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"edu_arcade/internal/config"
	"edu_arcade/internal/game"
	httpServer "edu_arcade/internal/http"
	"edu_arcade/internal/http/middleware"
	"edu_arcade/internal/logger"
	"edu_arcade/internal/ws"

	"github.com/gin-gonic/gin"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Get()

	content, err := game.LoadContent(cfg.ContentDir)
	if err != nil {
		logger.Fatal("load content", "dir", cfg.ContentDir, "err", err)
	}
	log.Info("content loaded", "questions", len(content.Questions), "cards", len(content.Cards))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := middleware.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		// keep the server available; limits fall back
		log.Warn("redis unavailable, rate limits are per instance", "err", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	limiter := middleware.NewLimiter(redisClient)

	hub := ws.NewHub(ws.HubConfig{
		RoomSize:     cfg.RoomSize,
		Factory:      cfg.Factory(),
		Content:      content,
		Limiter:      limiter,
		ActionLimit:  cfg.ActionRateLimit,
		ActionWindow: time.Duration(cfg.ActionRateWindow) * time.Second,
		Logger:       log,
	})
	hub.StartCleanup(ctx, 10*time.Minute)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for the classroom page served from another origin
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, cfg, hub, limiter, version)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "err", err)
	}
	hub.Shutdown()

	log.Info("server exited")
}
