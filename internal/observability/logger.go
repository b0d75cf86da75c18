package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger. Output is JSON on stdout with trace,
// span, request and user ids attached from the context. level overrides the
// per-environment default when it names a slog level.
func NewLogger(env, level string) *slog.Logger {
	return newLogger(os.Stdout, levelFor(env, level))
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})
	return slog.New(NewTraceHandler(h))
}

func levelFor(env, level string) slog.Level {
	var l slog.Level
	if level != "" && l.UnmarshalText([]byte(strings.TrimSpace(level))) == nil {
		return l
	}
	if env == "dev" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
