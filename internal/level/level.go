// Package level wraps a go-kit/log.Logger with a settable minimum severity,
// in the manner of the teacher's pkg/level: the underlying logger always
// receives structured key/value pairs, but calls below the configured
// level are dropped before they reach it.
package level

import (
	"fmt"

	kitlog "github.com/go-kit/log"
	kitlevel "github.com/go-kit/log/level"
)

// Severity is a logging priority. Higher values are more important.
type Severity int

const (
	Debug Severity = iota
	Info
	Warn
	Error
)

// NewNop returns a base go-kit logger that discards everything.
func NewNop() kitlog.Logger { return kitlog.NewNopLogger() }

// Logger decorates a base go-kit logger with a minimum severity filter.
type Logger struct {
	base kitlog.Logger
	min  Severity
}

// New wraps base with a filter at min severity. A nil base is replaced
// with a no-op logger.
func New(base kitlog.Logger, min Severity) *Logger {
	if base == nil {
		base = NewNop()
	}
	return &Logger{base: base, min: min}
}

// NewNopLogger returns a *Logger that discards everything, used as the
// default when a caller does not supply one.
func NewNopLogger() *Logger {
	return &Logger{base: NewNop(), min: Error + 1}
}

// SetMinSeverity changes the filtering threshold.
func (l *Logger) SetMinSeverity(min Severity) { l.min = min }

func (l *Logger) log(sev Severity, decorate func(kitlog.Logger) kitlog.Logger, msg string, keyvals ...interface{}) {
	if sev < l.min {
		return
	}
	logger := decorate(l.base)
	args := append([]interface{}{"msg", msg}, keyvals...)
	_ = logger.Log(args...)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(Debug, kitlevel.Debug, fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(Info, kitlevel.Info, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(Warn, kitlevel.Warn, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(Error, kitlevel.Error, fmt.Sprintf(format, args...))
}
