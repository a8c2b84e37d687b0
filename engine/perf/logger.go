package perf

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/hebedebe/TouchingJack2/engine/memmgr"
	"github.com/hebedebe/TouchingJack2/engine/monitor"
	"github.com/hebedebe/TouchingJack2/engine/pool"
	"github.com/hebedebe/TouchingJack2/engine/preload"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so the caller skips message formatting entirely,
// making disabled logging effectively zero-cost.
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

// SetLogger configures the logger for the performance layer and all its
// sub-packages. By default nothing is logged. Pass nil to restore the
// silent default. Safe for concurrent use.
//
// Log levels used:
//   - [slog.LevelInfo]: lifecycle events (cleanup runs, teardown)
//   - [slog.LevelWarn]: non-fatal issues (pool overflow, accounting
//     imbalance, degraded frame rate)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	pool.SetLogger(l)
	memmgr.SetLogger(l)
	monitor.SetLogger(l)
	preload.SetLogger(l)
}

func logger() *slog.Logger {
	return loggerPtr.Load()
}
