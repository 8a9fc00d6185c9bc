// Package control provides the ambient logging, metrics, and misuse-detector
// surface shared by the eventloop, channel, pipeline, and httpcodec
// packages.
//
// Adapted from hioload-ws's control/debug.go tagged-diagnostic-event style
// and control/metrics.go counters, generalized into a small logging facade
// over the standard library's log/slog so callers can plug in any slog
// handler (text, JSON, or a third-party backend) without this module taking
// a direct dependency on one.
//
// Author: adapted from hioload-ws, for reactorcore.
// License: Apache-2.0
package control

import (
	"context"
	"log/slog"
)

// Logger is the structured logging sink consumed by the core components.
// It is satisfied directly by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoOpLogger discards everything. It is the default when no Logger is
// configured, so the core packages never need a nil check before logging.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

// slogAdapter wraps a *slog.Logger to satisfy Logger.
type slogAdapter struct {
	l   *slog.Logger
	ctx context.Context
}

// NewSlogLogger adapts an *slog.Logger (e.g. slog.Default(), or one backed
// by a JSON/text handler) into a control.Logger.
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return &slogAdapter{l: l, ctx: context.Background()}
}

func (s *slogAdapter) Debug(msg string, args ...any) { s.l.DebugContext(s.ctx, msg, args...) }
func (s *slogAdapter) Info(msg string, args ...any)  { s.l.InfoContext(s.ctx, msg, args...) }
func (s *slogAdapter) Warn(msg string, args ...any)  { s.l.WarnContext(s.ctx, msg, args...) }
func (s *slogAdapter) Error(msg string, args ...any) { s.l.ErrorContext(s.ctx, msg, args...) }
