// Package logger provides the process-wide leveled logger. It wraps the
// standard log package with level filtering; call Init once at startup.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level is a logging severity.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

var (
	minLevel = InfoLevel
	std      = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

// Init sets the minimum level emitted by the package-level functions.
func Init(level string) {
	minLevel = ParseLevel(level)
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func output(l Level, format string, args ...any) {
	if l < minLevel {
		return
	}
	_ = std.Output(3, fmt.Sprintf("["+levelNames[l]+"] "+format, args...))
}

// Debug logs a message at DebugLevel.
func Debug(format string, args ...any) { output(DebugLevel, format, args...) }

// Info logs a message at InfoLevel.
func Info(format string, args ...any) { output(InfoLevel, format, args...) }

// Warn logs a message at WarnLevel.
func Warn(format string, args ...any) { output(WarnLevel, format, args...) }

// Error logs a message at ErrorLevel.
func Error(format string, args ...any) { output(ErrorLevel, format, args...) }

// Fatal logs at ErrorLevel and exits.
func Fatal(format string, args ...any) {
	output(ErrorLevel, format, args...)
	os.Exit(1)
}
