// Package logger provides leveled diagnostic logging to stderr.
// User-facing command output does not go through here.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level represents a logging level
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	// OffLevel silences everything.
	OffLevel
)

// ParseLevel maps a level name to a Level. Unknown names yield WarnLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "off", "none", "quiet":
		return OffLevel
	default:
		return WarnLevel
	}
}

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "off"
	}
}

type Logger struct {
	level  Level
	logger *log.Logger
}

var (
	mu            sync.RWMutex
	defaultLogger = &Logger{level: WarnLevel, logger: log.New(os.Stderr, "", 0)}
)

// Init sets the level of the default logger. Debug adds timestamps and call sites.
func Init(level string) {
	SetOutput(os.Stderr, ParseLevel(level))
}

// SetOutput redirects the default logger; tests use it to capture output.
func SetOutput(w io.Writer, level Level) {
	flags := 0
	if level == DebugLevel {
		flags = log.Ltime | log.Lmicroseconds | log.Lshortfile
	}
	mu.Lock()
	defaultLogger = &Logger{level: level, logger: log.New(w, "", flags)}
	mu.Unlock()
}

// CurrentLevel returns the active level.
func CurrentLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger.level
}

func output(level Level, tag, format string, args ...interface{}) {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l.level > level {
		return
	}
	_ = l.logger.Output(3, fmt.Sprintf("["+tag+"] "+format, args...))
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) { output(DebugLevel, "DEBUG", format, args...) }

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) { output(InfoLevel, "INFO", format, args...) }

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) { output(WarnLevel, "WARN", format, args...) }

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) { output(ErrorLevel, "ERROR", format, args...) }
