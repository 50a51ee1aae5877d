// Package logger owns the process-wide slog logger. Packages that are handed
// a *slog.Logger use that one; L and the level helpers are for wiring code.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/oggyb/leomatch/internal/config"
)

const textTimeFormat = "2006-01-02 15:04:05"

var (
	mu      sync.RWMutex
	current *slog.Logger
	active  = config.LogConfig{Level: "info", Format: "text"}
)

// New builds a logger for lc writing to w. Text output uses a short local
// timestamp, JSON keeps RFC 3339.
func New(lc config.LogConfig, w io.Writer) *slog.Logger {
	json := strings.EqualFold(strings.TrimSpace(lc.Format), "json")

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(lc.Level),
		AddSource: lc.Source,
	}
	if !json {
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, a.Value.Time().Format(textTimeFormat))
			}
			return a
		}
	}

	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	l := slog.New(h)
	if lc.Component != "" {
		l = l.With("component", lc.Component)
	}
	return l
}

// InitFromConfig (re)builds the global logger from the Log section of c.
// A nil config rebuilds it with the settings already in use.
func InitFromConfig(c *config.Config) {
	mu.Lock()
	defer mu.Unlock()

	if c != nil {
		active = c.Log
	}
	current = New(active, os.Stdout)
	slog.SetDefault(current)
}

// L returns the global logger, building a default one on first use.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}

	InitFromConfig(nil)
	return L()
}

// With creates a child logger with additional attributes.
func With(args ...any) *slog.Logger { return L().With(args...) }

// Named returns a child logger tagged with a subsystem name.
func Named(subsystem string) *slog.Logger { return L().With("subsystem", subsystem) }

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

// ParseLevel maps a config string onto a slog level; unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
