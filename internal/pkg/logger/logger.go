// Package logger provides the structured logger shared by all converter
// components. Diagnostics go to stderr so they never mix with the per-file
// conversion report written to stdout.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	defaultLogger *slog.Logger
	once          sync.Once
)

// Initialize sets up the structured logger
func Initialize() {
	once.Do(func() {
		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     levelFromEnv(),
			AddSource: false,
		})
		defaultLogger = slog.New(handler)
	})
}

// levelFromEnv maps the LOG_LEVEL environment variable to a slog level,
// defaulting to Info.
func levelFromEnv() slog.Level {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Get returns the default structured logger
func Get() *slog.Logger {
	Initialize() // Always call Initialize, sync.Once ensures it only runs once
	return defaultLogger
}

// Info logs an info level message
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Warn logs a warning level message
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs an error level message
func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

// Debug logs a debug level message
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}
