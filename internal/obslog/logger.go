// Package obslog is the logging adapter used by server and client for
// the ambient structured-logging concern spec.md doesn't specify a
// wire format for (spec.md §1 excludes "logging format" from scope,
// not logging itself). Grounded on calque-ai-go-calque's
// pkg/middleware/logger package: an interface in front of a concrete
// zerolog.Logger, so callers never import zerolog directly.
package obslog

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Field is a single structured key/value attribute attached to a log line.
type Field struct {
	Key   string
	Value any
}

// F constructs a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger is the contract server/client code logs through.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	// With returns a derived Logger that always includes the given
	// fields (used for per-connection correlation ids).
	With(fields ...Field) Logger
}

// zerologLogger adapts zerolog.Logger to Logger.
type zerologLogger struct {
	z zerolog.Logger
}

// New wraps an existing zerolog.Logger.
func New(z zerolog.Logger) Logger {
	return &zerologLogger{z: z}
}

// NewWriter builds a Logger writing JSON lines (zerolog's encoding) to w, at the
// given minimum level ("debug", "info", "warn", "error"; defaults to
// "info" on an unrecognized value).
func NewWriter(w io.Writer, level string) Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	z := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return New(z)
}

var (
	defaultOnce sync.Once
	defaultLog  Logger
)

// Default returns a package-wide Logger writing to stderr at info
// level, for callers (e.g. internal/match) that don't have a
// request-scoped logger threaded through.
func Default() Logger {
	defaultOnce.Do(func() {
		defaultLog = NewWriter(os.Stderr, "info")
	})
	return defaultLog
}

func (l *zerologLogger) Debug(msg string, fields ...Field) {
	apply(l.z.Debug(), fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields ...Field) {
	apply(l.z.Info(), fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields ...Field) {
	apply(l.z.Warn(), fields).Msg(msg)
}

func (l *zerologLogger) Error(msg string, err error, fields ...Field) {
	apply(l.z.Error().Err(err), fields).Msg(msg)
}

func (l *zerologLogger) With(fields ...Field) Logger {
	ctx := l.z.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &zerologLogger{z: ctx.Logger()}
}

func apply(evt *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		evt = evt.Interface(f.Key, f.Value)
	}
	return evt
}
