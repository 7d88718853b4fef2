package config

import (
	"os"
	"strconv"
	"time"

	"edu_arcade/internal/domain"
	"edu_arcade/internal/game"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	LogLevel      string
	LogJSON       bool
	AllowedOrigin string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// connect limit per IP on /ws
	WSRateLimit  int
	WSRateWindow int
	// action limit per player per room
	ActionRateLimit  int
	ActionRateWindow int

	RoomSize   int
	ContentDir string

	Tick        time.Duration
	ResultDelay time.Duration

	TriviaQuestionSeconds int
	TriviaTotalQuestions  int
	TriviaSessionSeconds  int
	BoardSize             int
	BoardTurnSeconds      int
	BoardSessionSeconds   int
	DebateRounds          int
	DebateTurnSeconds     int
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort:       str("APP_PORT", "8080"),
		LogLevel:      str("LOG_LEVEL", "info"),
		LogJSON:       os.Getenv("LOG_JSON") == "true",
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       intAtLeast("REDIS_DB", 0, 0),

		WSRateLimit:      intAtLeast("WS_RATE_LIMIT", 30, 1),
		WSRateWindow:     intAtLeast("WS_RATE_WINDOW_SECONDS", 60, 1),
		ActionRateLimit:  intAtLeast("ACTION_RATE_LIMIT", 30, 1),
		ActionRateWindow: intAtLeast("ACTION_RATE_WINDOW_SECONDS", 10, 1),

		RoomSize:   intAtLeast("ROOM_SIZE", 2, 1),
		ContentDir: os.Getenv("CONTENT_DIR"),

		Tick:        time.Duration(intAtLeast("TICK_MILLIS", 1000, 1)) * time.Millisecond,
		ResultDelay: time.Duration(intAtLeast("RESULT_DELAY_MILLIS", 3000, 0)) * time.Millisecond,

		TriviaQuestionSeconds: intAtLeast("TRIVIA_QUESTION_SECONDS", 30, 1),
		TriviaTotalQuestions:  intAtLeast("TRIVIA_TOTAL_QUESTIONS", 10, 1),
		// 0 keeps trivia untimed
		TriviaSessionSeconds: intAtLeast("TRIVIA_SESSION_SECONDS", 0, 0),
		BoardSize:            intAtLeast("BOARD_SIZE", 30, 2),
		BoardTurnSeconds:     intAtLeast("BOARD_TURN_SECONDS", 20, 1),
		BoardSessionSeconds:  intAtLeast("BOARD_SESSION_SECONDS", 600, 0),
		DebateRounds:         intAtLeast("DEBATE_ROUNDS", 3, 1),
		DebateTurnSeconds:    intAtLeast("DEBATE_TURN_SECONDS", 45, 1),
	}
}

// Factory builds the session factory with the configured limits.
func (c *Config) Factory() *game.Factory {
	base := game.Limits{TickInterval: c.Tick, ResultDelay: c.ResultDelay}

	trivia := base
	trivia.TurnSeconds = c.TriviaQuestionSeconds
	trivia.TotalQuestions = c.TriviaTotalQuestions
	trivia.SessionSeconds = unlimitedIfZero(c.TriviaSessionSeconds)

	board := base
	board.TurnSeconds = c.BoardTurnSeconds
	board.BoardSize = c.BoardSize
	board.SessionSeconds = unlimitedIfZero(c.BoardSessionSeconds)

	debate := base
	debate.TurnSeconds = c.DebateTurnSeconds
	debate.Rounds = c.DebateRounds

	return game.NewFactory().
		WithLimits(domain.KindTrivia, trivia).
		WithLimits(domain.KindBoardRace, board).
		WithLimits(domain.KindDebate, debate)
}

// in Limits 0 means "default", negative means none
func unlimitedIfZero(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

func str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// intAtLeast falls back to def when the value is unset, malformed or below
// min.
func intAtLeast(key string, def, min int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return def
	}
	return n
}
