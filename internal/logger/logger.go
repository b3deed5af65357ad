package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON logger at info level for prod and a text logger at
// debug level otherwise.
func New(env string) *slog.Logger {
	return NewWriter(env, os.Stdout)
}

func NewWriter(env string, w io.Writer) *slog.Logger {
	var h slog.Handler
	if env == "prod" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(h).With("service", "point-ledger", "env", env)
}

// Discard drops everything; for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
