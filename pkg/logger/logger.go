// Package logger wraps zerolog behind a small façade so engine packages
// share one configuration surface: level, format, and output destination
// come from config, everything else is zerolog passthrough.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger wraps a configured zerolog.Logger.
type Logger struct {
	logger zerolog.Logger
}

// New creates a logger. format is "json" or "console"; output is a file
// path, or empty/"stdout" for standard output. An unopenable file falls
// back to stdout so a bad logging path never takes the process down.
func New(level, format, output string) *Logger {
	var writer io.Writer = os.Stdout
	if output != "" && output != "stdout" {
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err == nil {
			writer = file
		}
	}

	if format == "console" {
		writer = zerolog.ConsoleWriter{Out: writer}
	}

	l := zerolog.New(writer).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Caller().
		Logger()

	return &Logger{logger: l}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent returns a child logger tagged with a component name, so a
// service's log lines carry their origin without each call site adding it.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{logger: l.logger.With().Str("component", name).Logger()}
}

// Debug starts a debug-level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info starts an info-level event.
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn starts a warn-level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error starts an error-level event.
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Fatal starts a fatal-level event; sending it exits the process.
func (l *Logger) Fatal() *zerolog.Event {
	return l.logger.Fatal()
}

// With creates a child context for additional fields.
func (l *Logger) With() zerolog.Context {
	return l.logger.With()
}

// GetLogger exposes the underlying zerolog.Logger.
func (l *Logger) GetLogger() zerolog.Logger {
	return l.logger
}

var global *Logger

// Init configures the process-wide fallback logger.
func Init(level, format, output string) {
	global = New(level, format, output)
}

// Get returns the fallback logger, creating a default one if Init was
// never called.
func Get() *Logger {
	if global == nil {
		global = New("info", "json", "")
	}
	return global
}
