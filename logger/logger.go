package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger carrying contactmerge's fixed fields
type Logger struct {
	logger zerolog.Logger
}

// Default is the process-wide logger set up by Init
var Default *Logger

// Init sets the global level from the environment and points Default at a
// console writer on stderr. Stdout stays free for reports and CSV output.
func Init() {
	level := levelFromEnv()
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	Default = New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	Default.Debug().Str("level", level.String()).Msg("Logger initialized")
}

// New creates a timestamped logger writing to w
func New(w io.Writer) *Logger {
	return &Logger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// levelFromEnv reads LOG_LEVEL. Without it, production runs log at info
// and everything else at debug.
func levelFromEnv() zerolog.Level {
	name := os.Getenv("LOG_LEVEL")
	if name == "" {
		if os.Getenv("CONTACTS_ENVIRONMENT") == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func defaultLogger() *Logger {
	if Default == nil {
		Init()
	}
	return Default
}

// WithContext attaches the logger to ctx
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.logger.WithContext(ctx)
}

// FromContext returns the logger attached to ctx, or Default
func FromContext(ctx context.Context) *Logger {
	if zl := zerolog.Ctx(ctx); zl != nil && zl.GetLevel() != zerolog.Disabled {
		return &Logger{logger: *zl}
	}
	return defaultLogger()
}

// WithField returns a child logger that adds key to every event
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }

func (l *Logger) Info() *zerolog.Event { return l.logger.Info() }

func (l *Logger) Warn() *zerolog.Event { return l.logger.Warn() }

func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }

// Info logs a formatted message on Default
func Info(format string, v ...interface{}) {
	defaultLogger().Info().Msgf(format, v...)
}

// Warn logs a formatted warning on Default
func Warn(format string, v ...interface{}) {
	defaultLogger().Warn().Msgf(format, v...)
}

// ForStage tags events with the pipeline pass that produced them
func ForStage(stage string) *Logger {
	return defaultLogger().WithField("stage", stage)
}

func forComponent(name string) *Logger {
	return defaultLogger().WithField("component", name)
}

func ForWorker() *Logger { return forComponent("worker") }

func ForPublisher() *Logger { return forComponent("publisher") }

func ForCache() *Logger { return forComponent("cache") }
