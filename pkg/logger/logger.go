// Package logger provides the process-wide diagnostic log for runs. By
// default everything is discarded; Init points it at a file and SetVerbose
// mirrors it to stderr for interactive debugging.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	out     *log.Logger
	logFile *os.File
	verbose bool
)

// Init initializes the global logger with the specified log file path.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //#nosec G304 -- user-selected log path
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	out = log.New(currentWriter(), "", log.Ltime|log.Lmicroseconds)
	return nil
}

// SetVerbose mirrors log output to stderr (and enables logging even without
// a log file).
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	out = log.New(currentWriter(), "", log.Ltime|log.Lmicroseconds)
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	out = nil
}

func currentWriter() io.Writer {
	switch {
	case logFile != nil && verbose:
		return io.MultiWriter(logFile, os.Stderr)
	case logFile != nil:
		return logFile
	case verbose:
		return os.Stderr
	default:
		return io.Discard
	}
}

func logf(level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if out != nil {
		out.Printf("["+level+"] "+format, v...)
	}
}

// Info logs an info message.
func Info(format string, v ...interface{}) { logf("INFO", format, v...) }

// Debug logs a debug message.
func Debug(format string, v ...interface{}) { logf("DEBUG", format, v...) }

// Warn logs a warning message.
func Warn(format string, v ...interface{}) { logf("WARN", format, v...) }

// Error logs an error message.
func Error(format string, v ...interface{}) { logf("ERROR", format, v...) }
