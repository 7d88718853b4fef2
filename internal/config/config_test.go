package config

import (
	"testing"
	"time"

	"edu_arcade/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("ROOM_SIZE", "")
	t.Setenv("TRIVIA_SESSION_SECONDS", "")
	t.Setenv("TICK_MILLIS", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 2, cfg.RoomSize)
	assert.Equal(t, time.Second, cfg.Tick)

	f := cfg.Factory()
	assert.Equal(t, 30, f.Limits(domain.KindTrivia).TurnSeconds)
	assert.Zero(t, f.Limits(domain.KindTrivia).SessionSeconds)
	assert.Equal(t, 600, f.Limits(domain.KindBoardRace).SessionSeconds)
	assert.Equal(t, 3, f.Limits(domain.KindDebate).Rounds)
}

func TestLoadOverridesAndBadValues(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("ROOM_SIZE", "5")
	t.Setenv("BOARD_SIZE", "1")
	t.Setenv("DEBATE_ROUNDS", "many")
	t.Setenv("TICK_MILLIS", "250")
	t.Setenv("LOG_JSON", "true")

	cfg := Load()
	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, 5, cfg.RoomSize)
	assert.Equal(t, 30, cfg.BoardSize, "below minimum falls back")
	assert.Equal(t, 3, cfg.DebateRounds, "malformed falls back")
	assert.Equal(t, 250*time.Millisecond, cfg.Tick)
	assert.True(t, cfg.LogJSON)

	assert.Equal(t, 250*time.Millisecond, cfg.Factory().Limits(domain.KindBoardRace).TickInterval)
}
