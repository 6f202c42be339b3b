package logging

import (
	"log"
	"os"
	"strings"
)

// Level represents different logging verbosity levels
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger prefixes lines with a component tag and drops those above its level
type Logger struct {
	component string
	level     Level
}

// New creates a logger for component at level
func New(component string, level Level) *Logger {
	return &Logger{component: component, level: level}
}

// FromEnv creates a logger whose level comes from LOG_LEVEL
func FromEnv(component string) *Logger {
	return New(component, ParseLevel(os.Getenv("LOG_LEVEL")))
}

// ParseLevel maps ERROR, WARN, INFO and DEBUG to a level. Anything else is
// INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.printf(LevelError, "ERROR: ", format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.printf(LevelWarn, "WARN: ", format, args...)
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.printf(LevelInfo, "", format, args...)
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.printf(LevelDebug, "DEBUG: ", format, args...)
}

// Enabled reports whether messages at level are printed
func (l *Logger) Enabled(level Level) bool {
	return l.level >= level
}

func (l *Logger) printf(level Level, tag, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	log.Printf("["+l.component+"] "+tag+format, args...)
}
