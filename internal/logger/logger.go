package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Attribute keys shared by sessions, rooms and clients, so one game can be
// followed across components.
const (
	KeySession = "session_id"
	KeyKind    = "kind"
	KeyRoom    = "room"
	KeyPlayer  = "player"
)

type ctxKey struct{}

var (
	defaultLogger *slog.Logger
)

// Init initializes the global logger on stdout
func Init(level string, json bool) {
	InitWriter(os.Stdout, level, json)
}

// InitWriter initializes the global logger on w. The terminal harness
// passes stderr so game output stays readable.
func InitWriter(w io.Writer, level string, json bool) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Get returns the default logger
func Get() *slog.Logger {
	if defaultLogger == nil {
		Init("info", false)
	}
	return defaultLogger
}

// Discard drops everything; tests and quiet bots use it.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ForSession(l *slog.Logger, id, kind string) *slog.Logger {
	return l.With(KeySession, id, KeyKind, kind)
}

func ForRoom(l *slog.Logger, code, kind string) *slog.Logger {
	return l.With(KeyRoom, code, KeyKind, kind)
}

func ForPlayer(l *slog.Logger, id string) *slog.Logger {
	return l.With(KeyPlayer, id)
}

// NewContext carries a request-scoped logger into a long-lived goroutine.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by NewContext.
func FromContext(ctx context.Context) (*slog.Logger, bool) {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	return l, ok && l != nil
}

// Fatal logs at error level and exits
func Fatal(msg string, args ...any) {
	Get().Error(msg, args...)
	os.Exit(1)
}
