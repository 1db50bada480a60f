package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

var (
	// Default is the default logger instance
	Default *Logger
)

// Init initializes the default logger from APP_ENVIRONMENT. Call
// InitForEnvironment once the configuration is loaded.
func Init() {
	InitForEnvironment(os.Getenv("APP_ENVIRONMENT"))
}

// InitForEnvironment initializes the default logger. Development builds
// write human readable console lines, production writes JSON.
func InitForEnvironment(environment string) {
	level := getLogLevel(environment)

	InitWithWriter(outputFor(environment, os.Stdout), level)

	Default.Info().
		Str("level", level.String()).
		Str("environment", environment).
		Msg("Logger initialized")
}

func outputFor(environment string, out io.Writer) io.Writer {
	if environment == "production" {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
}

// InitWithWriter points the default logger at w
func InitWithWriter(w io.Writer, level zerolog.Level) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	Default = New(w)
}

// New creates a logger writing to w
func New(w io.Writer) *Logger {
	return &Logger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// getLogLevel returns LOG_LEVEL, or a default for the environment
func getLogLevel(environment string) zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if environment == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	newLogger := l.logger.With()
	for k, v := range fields {
		newLogger = newLogger.Interface(k, v)
	}
	return &Logger{logger: newLogger.Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Fatal returns a fatal event
func (l *Logger) Fatal() *zerolog.Event {
	return l.logger.Fatal()
}

func defaultLogger() *Logger {
	if Default == nil {
		Init()
	}
	return Default
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	defaultLogger().Debug().Msgf(format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	defaultLogger().Info().Msgf(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	defaultLogger().Warn().Msgf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	defaultLogger().Error().Msgf(format, v...)
}

// Fatal logs a fatal message and exits
func Fatal(format string, v ...interface{}) {
	defaultLogger().Fatal().Msgf(format, v...)
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return defaultLogger().logger.GetLevel() <= zerolog.DebugLevel && zerolog.GlobalLevel() <= zerolog.DebugLevel
}

// ForComponent creates a logger tagged with a pipeline component
func ForComponent(component string) *Logger {
	return defaultLogger().WithField("component", component)
}

// ForFetcher creates a logger for the listing page fetcher
func ForFetcher() *Logger { return ForComponent("fetcher") }

// ForExtractor creates a logger for the listing card extractor
func ForExtractor() *Logger { return ForComponent("extractor") }

// ForStore creates a logger for the seen-id store
func ForStore() *Logger { return ForComponent("store") }

// ForNotifier creates a logger for the SMS notifier
func ForNotifier() *Logger { return ForComponent("notifier") }

// ForWorker creates a logger for the worker
func ForWorker() *Logger { return ForComponent("worker") }

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger { return ForComponent("publisher") }

// ForCache creates a logger for the cache
func ForCache() *Logger { return ForComponent("cache") }

// LogError is a convenience method for logging errors with context
func LogError(component string, err error, format string, v ...interface{}) {
	defaultLogger().Error().
		Str("component", component).
		Err(err).
		Msg(fmt.Sprintf(format, v...))
}

// LogInfo is a convenience method for logging info with context
func LogInfo(component string, format string, v ...interface{}) {
	defaultLogger().Info().
		Str("component", component).
		Msg(fmt.Sprintf(format, v...))
}
