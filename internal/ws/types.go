package ws

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"edu_arcade/internal/clock"
	"edu_arcade/internal/game"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomStarted  = errors.New("room already started")
	ErrRoomFull     = errors.New("room is full")
	ErrSeatTaken    = errors.New("player already connected")
	ErrRateLimited  = errors.New("rate limit exceeded")
)

// Limiter counts hits per key in a fixed window. A nil Limiter allows
// everything.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// HubConfig wires a Hub to its games and infrastructure.
type HubConfig struct {
	// RoomSize seats start a matchmade room automatically.
	RoomSize int
	Factory  *game.Factory
	Content  game.Content

	Limiter      Limiter
	ActionLimit  int
	ActionWindow time.Duration

	// StaleAfter removes rooms that have had no clients for this long.
	StaleAfter time.Duration

	Scheduler clock.Scheduler
	Logger    *slog.Logger
}

func (c HubConfig) withDefaults() HubConfig {
	if c.RoomSize <= 0 {
		c.RoomSize = 2
	}
	if c.Factory == nil {
		c.Factory = game.NewFactory()
	}
	if len(c.Content.Questions) == 0 {
		c.Content.Questions = game.SampleQuestions()
	}
	if len(c.Content.Cards) == 0 {
		c.Content.Cards = game.SampleCards()
	}
	if c.ActionLimit <= 0 {
		c.ActionLimit = 30
	}
	if c.ActionWindow <= 0 {
		c.ActionWindow = 10 * time.Second
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = time.Hour
	}
	if c.Scheduler == nil {
		c.Scheduler = clock.Real()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
