package logging

import (
	"context"
	"io"
	"log/slog"
)

// Format selects the slog handler used by New.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// New builds a SlogLogger writing to w with the given format and minimum level.
// Unknown formats fall back to text.
func New(w io.Writer, format Format, level slog.Level) *SlogLogger {
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch format {
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return NewSlogLogger(slog.New(h))
}

// NewNop returns a logger that discards everything.
func NewNop() *SlogLogger {
	return New(io.Discard, FormatText, slog.LevelError+4)
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}
