// Package logging configures the process-wide slog default handler.
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Level is the process-wide dynamic log level. Use SetLevel to change it
// after Setup has installed the handler.
var Level = new(slog.LevelVar)

// Setup installs the default slog handler: colored output when stderr is a
// terminal, newline-delimited JSON otherwise (daemonized or piped runs, and
// anywhere the MCP stdio transport reserves stdout for protocol frames).
func Setup() {
	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      Level,
			TimeFormat: time.TimeOnly,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: Level})
	}
	slog.SetDefault(slog.New(handler))
}

// SetLevel changes the process-wide log level.
func SetLevel(l slog.Level) {
	Level.Set(l)
}

// ParseLevel maps a config/CLI string to a slog.Level, defaulting to Info
// for an unrecognized value.
func ParseLevel(s string) slog.Level {
	switch s {
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
