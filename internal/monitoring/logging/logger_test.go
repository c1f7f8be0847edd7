package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToInfo(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	require.NotNil(t, l)
	// Must not panic.
	l.Info("hello", String("k", "v"), Int("n", 1))
	l.Debug("suppressed at info level")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose"})
	assert.Error(t, err)
}

func TestNewConsoleFormat(t *testing.T) {
	l, err := New(Config{Level: "debug", Format: "console"})
	require.NoError(t, err)
	l.Debug("visible in console mode")
}

func TestErrField(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestNopLoggerChains(t *testing.T) {
	var l Logger = NopLogger{}
	l = l.With(String("a", "b")).Named("child")
	l.Error("discarded")
}
