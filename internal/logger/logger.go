package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by the logger
type ContextKey string

const (
	// LoggerKey is the context key for the logger instance
	LoggerKey ContextKey = "logger"
)

// Options controls how Configure builds a logger.
type Options struct {
	Level  string    // trace, debug, info, warn, error; defaults to info
	Format string    // "console" or "json"; defaults to console
	Writer io.Writer // defaults to os.Stdout
}

// New creates a new structured logger with default configuration
func New() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Caller().Logger()
}

// NewWithWriter creates a new structured logger with a custom writer
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

// Configure builds a logger from LOG_LEVEL / LOG_FORMAT style options.
// An unknown level falls back to info.
func Configure(opts Options) zerolog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	var log zerolog.Logger
	if strings.EqualFold(opts.Format, "json") {
		log = NewWithWriter(w)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			With().Timestamp().Caller().Logger()
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return log.Level(level)
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from the context or returns a default logger
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return New()
}

// WithFields adds structured fields to a logger. Empty string values are skipped.
func WithFields(logger zerolog.Logger, fields map[string]interface{}) zerolog.Logger {
	ctx := logger.With()
	for k, v := range fields {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		ctx = ctx.Interface(k, v)
	}
	return ctx.Logger()
}

// ForMessage returns a child logger tagged with the chat message being handled.
func ForMessage(logger zerolog.Logger, channelID, messageID, authorID string) zerolog.Logger {
	return WithFields(logger, map[string]interface{}{
		"channel_id": channelID,
		"message_id": messageID,
		"author_id":  authorID,
	})
}
