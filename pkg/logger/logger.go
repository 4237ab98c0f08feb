package logger

import (
	"log"
	"os"
)

// LoggerInterface defines the methods that your logger should implement.
type LoggerInterface interface {
	Printf(format string, v ...interface{})
}

// Logger represents a logger instance.
type Logger struct {
	*log.Logger
}

// NewLogger creates a new instance of LoggerInterface writing to the
// given file. If the file cannot be opened the logger falls back to
// stderr so the client keeps running.
func NewLogger(path string) LoggerInterface {
	logFile, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("Error opening log file: %v, logging to stderr", err)
		return &Logger{Logger: log.New(os.Stderr, "", log.LstdFlags)}
	}

	return &Logger{
		Logger: log.New(logFile, "", log.LstdFlags),
	}
}
