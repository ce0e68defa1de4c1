// Package logging holds the process-wide structured logger.
//
// By default nothing is logged. Hosts call SetLogger (the CLI does so when
// --log-level is given) and every package picks the logger up through
// Logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

// nopHandler discards all records. Enabled returns false so callers skip
// attribute formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger replaces the active logger. Passing nil restores the silent
// default. Safe for concurrent use.
//
// Levels:
//   - debug: engine argv and display callback traces
//   - info: lifecycle (engine created, texture created or released)
//   - warn: failures absorbed by a load cycle
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the active logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// ParseLevel maps a config/flag value to a slog level. The empty string and
// "off" report ok=false, meaning logging stays disabled.
func ParseLevel(value string) (slog.Level, bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "off", "none":
		return 0, false, nil
	case "debug":
		return slog.LevelDebug, true, nil
	case "info":
		return slog.LevelInfo, true, nil
	case "warn", "warning":
		return slog.LevelWarn, true, nil
	case "error":
		return slog.LevelError, true, nil
	default:
		return 0, false, fmt.Errorf("unknown log level %q", value)
	}
}

// Configure installs a text handler writing to w at the given level, or the
// silent logger when level is off.
func Configure(w io.Writer, level string) error {
	lvl, enabled, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if !enabled {
		SetLogger(nil)
		return nil
	}
	SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}
