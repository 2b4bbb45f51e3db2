package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Logger is the leveled, printf-style logger used across harq
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// StandardLogger writes timestamped lines through a stdlib log.Logger
type StandardLogger struct {
	verbose bool
	logger  *log.Logger
}

// New creates a logger writing to stderr. Debug lines are only emitted when
// verbose is set; quiet drops everything below Error.
func New(verbose, quiet bool) Logger {
	return NewWithWriter(os.Stderr, verbose, quiet)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(w io.Writer, verbose, quiet bool) Logger {
	if quiet {
		return &quietLogger{StandardLogger{logger: log.New(w, "", 0)}}
	}
	return &StandardLogger{
		verbose: verbose,
		logger:  log.New(w, "", 0),
	}
}

// Nop returns a logger that discards everything
func Nop() Logger {
	return &StandardLogger{}
}

// Debug logs debug messages (only in verbose mode)
func (l *StandardLogger) Debug(format string, args ...interface{}) {
	if l.verbose {
		l.logWithLevel("DEBUG", format, args...)
	}
}

// Info logs informational messages
func (l *StandardLogger) Info(format string, args ...interface{}) {
	l.logWithLevel("INFO", format, args...)
}

// Warn logs warning messages
func (l *StandardLogger) Warn(format string, args ...interface{}) {
	l.logWithLevel("WARN", format, args...)
}

// Error logs error messages
func (l *StandardLogger) Error(format string, args ...interface{}) {
	l.logWithLevel("ERROR", format, args...)
}

func (l *StandardLogger) logWithLevel(level string, format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05")
	l.logger.Printf("[%s] %s: %s", timestamp, level, fmt.Sprintf(format, args...))
}

type quietLogger struct {
	StandardLogger
}

func (q *quietLogger) Debug(string, ...interface{}) {}
func (q *quietLogger) Info(string, ...interface{})  {}
func (q *quietLogger) Warn(string, ...interface{})  {}
