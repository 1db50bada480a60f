package helpers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sjsage522/aptwatcher/logger"
)

// LoggerInterface defines the interface for logger implementations
type LoggerInterface interface {
	LogError(component string, err error)
	LogInfo(format string, args ...interface{})
}

// Logger writes through the structured logger and keeps a plain text
// trail of errors in errorFile so failed cycles can be reviewed later.
type Logger struct {
	errorFile string
	log       *logger.Logger
	mu        sync.Mutex
}

// NewLogger creates a new logger instance
func NewLogger(errorFile string) *Logger {
	return &Logger{
		errorFile: errorFile,
		log:       logger.ForWorker(),
	}
}

// LogError logs an error with the component name and appends it to the error file
func (l *Logger) LogError(component string, err error) {
	l.log.WithError(err).Error().Str("source", component).Msg("Pipeline error")

	if l.errorFile == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		l.log.Warn().Err(fileErr).Str("file", l.errorFile).Msg("Failed to open error log")
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, component, err.Error())
}

// LogInfo logs an informational message
func (l *Logger) LogInfo(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}
