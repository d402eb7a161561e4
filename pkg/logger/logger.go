// Package logger provides structured logging for the vendor service,
// backed by zerolog.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// LoggingConfig controls logger construction.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Format is json or console. Defaults to json.
	Format string
	// Output is stdout or stderr. Defaults to stdout.
	Output string
}

// Logger wraps a zerolog logger with the helpers the services use.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger from config.
func New(cfg LoggingConfig) *Logger {
	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out}
	}

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil && cfg.Level != "" {
		level = parsed
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// NewDefault returns a JSON logger tagged with a component name.
func NewDefault(component string) *Logger {
	l := New(LoggingConfig{})
	l.zl = l.zl.With().Str("component", component).Logger()
	return l
}

// WithField returns a logger with an additional field attached.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithError returns a logger with the error attached.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().AnErr("error", err).Logger()}
}

// Debug logs a message at debug level.
func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }

// Info logs a message at info level.
func (l *Logger) Info(msg string) { l.zl.Info().Msg(msg) }

// Warn logs a message at warn level.
func (l *Logger) Warn(msg string) { l.zl.Warn().Msg(msg) }

// Error logs a message at error level.
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...interface{}) { l.zl.Debug().Msgf(format, args...) }

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...interface{}) { l.zl.Info().Msgf(format, args...) }

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...interface{}) { l.zl.Warn().Msgf(format, args...) }

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...interface{}) { l.zl.Error().Msgf(format, args...) }
