// Package corelog defines the logging seam used across the core.
//
// Grounded on the teacher's pkg/core/logger.go: the same Logger
// interface shape (Debug/Info/Warn/Error/With, plus a NopLogger), kept
// dependency-free so callers can inject anything satisfying it. Unlike
// the teacher, the default implementation wraps a real structured
// logger (zerolog) instead of hand-rolled fmt.Fprintf formatting — see
// SPEC_FULL.md's AMBIENT STACK / Logging section.
package corelog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the interface every core component logs through.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

// zLogger is the default Logger, backed by zerolog.
type zLogger struct {
	z zerolog.Logger
}

// New builds a Logger writing structured JSON lines to w.
func New(w io.Writer) Logger {
	return &zLogger{z: zerolog.New(w).With().Timestamp().Logger()}
}

// NewStd builds a Logger writing to stdout.
func NewStd() Logger {
	return New(os.Stdout)
}

func (l *zLogger) event(e *zerolog.Event, msg string, keyvals ...any) {
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, keyvals[i+1])
	}
	e.Msg(msg)
}

func (l *zLogger) Debug(msg string, keyvals ...any) { l.event(l.z.Debug(), msg, keyvals...) }
func (l *zLogger) Info(msg string, keyvals ...any)  { l.event(l.z.Info(), msg, keyvals...) }
func (l *zLogger) Warn(msg string, keyvals ...any)  { l.event(l.z.Warn(), msg, keyvals...) }
func (l *zLogger) Error(msg string, keyvals ...any) { l.event(l.z.Error(), msg, keyvals...) }

func (l *zLogger) With(keyvals ...any) Logger {
	ctx := l.z.With()
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, keyvals[i+1])
	}
	return &zLogger{z: ctx.Logger()}
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any)  {}
func (nopLogger) Info(string, ...any)   {}
func (nopLogger) Warn(string, ...any)   {}
func (nopLogger) Error(string, ...any)  {}
func (n nopLogger) With(...any) Logger  { return n }

// Nop returns a Logger that discards all messages.
func Nop() Logger { return nopLogger{} }
