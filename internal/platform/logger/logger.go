// Package logger provides structured logging for the glowcore engine.
// Every persistence, sync, and reward decision should be traceable through this.
package logger

import (
	"io"
	"log"
	"os"
)

// Logger provides leveled logging with context.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a new logger instance writing to stdout/stderr.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout, os.Stderr)
}

// NewLoggerTo creates a logger writing to the given streams. Tests pass
// io.Discard here to keep output quiet.
func NewLoggerTo(out, errOut io.Writer) *Logger {
	return &Logger{
		infoLogger:  log.New(out, "[GLOW-INFO] ", log.Ldate|log.Ltime|log.Lshortfile),
		warnLogger:  log.New(out, "[GLOW-WARN] ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLogger: log.New(errOut, "[GLOW-ERROR] ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.infoLogger.Println(msg)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.warnLogger.Println(msg)
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.errorLogger.Println(msg)
}

// Event logs a named game event for the activity audit trail.
func (l *Logger) Event(eventType string, playerID string, details string) {
	l.infoLogger.Printf("[EVENT:%s] Player:%s | %s", eventType, playerID, details)
}
