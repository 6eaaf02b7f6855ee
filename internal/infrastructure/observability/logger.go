package observability

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// InitLogger is the JSON logger of the long-running services.
func InitLogger(level string, output io.Writer) zerolog.Logger {
	if output == nil {
		output = os.Stdout
	}

	logLevel := parseLogLevel(level)

	return zerolog.New(output).
		Level(logLevel).
		With().
		Timestamp().
		Caller().
		Logger()
}

// NewConsoleLogger is a human-readable logger for command line tools.
func NewConsoleLogger(level string, output io.Writer) zerolog.Logger {
	if output == nil {
		output = os.Stderr
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}).
		Level(parseLogLevel(level)).
		With().
		Timestamp().
		Logger()
}

// parseLogLevel accepts zerolog level names plus "warning"; anything else
// falls back to info.
func parseLogLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return l
}

// WithTrace tags logger with the trace id carried by ctx, if any.
func WithTrace(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if id := TraceID(ctx); id != "" {
		return logger.With().Str("trace_id", id).Logger()
	}
	return logger
}
