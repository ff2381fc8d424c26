package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsLogger(t *testing.T) {
	l := Get()
	require.NotNil(t, l)
	assert.Same(t, l, Get(), "Get must return the same logger instance")
}

func TestWithReturnsChildLogger(t *testing.T) {
	l := With("component", "test")
	require.NotNil(t, l)
	assert.NotSame(t, Get(), l)
}

func TestLoggingDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Debug("debug message", "key", "value")
		Info("info message", "key", "value")
		Warn("warn message", "key", "value")
		Error("error message", "key", "value")
	})
}
