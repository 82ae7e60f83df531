package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the leveled, structured logger used across boxoffice.
// Args are alternating key/value pairs, e.g. Info("applied", "file", name).
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithField(key string, value any) Logger
	WithFields(fields map[string]any) Logger
}

// Config selects the level and output format of the default logger.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) WithField(key string, value any) Logger {
	return &slogLogger{l: s.l.With(key, value)}
}

func (s *slogLogger) WithFields(fields map[string]any) Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &slogLogger{l: s.l.With(args...)}
}

var std atomic.Pointer[slogLogger]

func init() {
	l, _ := New(Config{})
	std.Store(l.(*slogLogger))
}

// ParseLevel maps a level name onto a slog level. The empty string is warn.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("unknown log level %q", level)
}

// New builds a logger without installing it as the default.
func New(cfg Config) (Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return &slogLogger{l: slog.New(handler)}, nil
}

// Configure replaces the default logger.
func Configure(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	std.Store(l.(*slogLogger))
	return nil
}

func Default() Logger {
	return std.Load()
}

func Debug(msg string, args ...any) { std.Load().Debug(msg, args...) }
func Info(msg string, args ...any)  { std.Load().Info(msg, args...) }
func Warn(msg string, args ...any)  { std.Load().Warn(msg, args...) }
func Error(msg string, args ...any) { std.Load().Error(msg, args...) }

func WithField(key string, value any) Logger {
	return std.Load().WithField(key, value)
}

func WithFields(fields map[string]any) Logger {
	return std.Load().WithFields(fields)
}
