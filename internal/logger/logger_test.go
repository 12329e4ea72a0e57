package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseLevel covers the accepted spellings
func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelNone, ParseLevel("none"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

// TestLevel_String covers the labels
func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "NONE", LevelNone.String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}

// TestLogger_LevelFiltering verifies messages below the level are dropped
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn, &buf)

	l.Debug("hidden %d", 1)
	l.Info("hidden too")
	l.Warn("visible warning")
	l.Error("visible error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] visible warning")
	assert.Contains(t, out, "[ERROR] visible error")
}

// TestLogger_WithPrefix verifies prefix nesting
func TestLogger_WithPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, &buf).WithPrefix("hubclient").WithPrefix("reader")

	l.Info("frame dropped")
	assert.Contains(t, buf.String(), "[hubclient:reader] frame dropped")
}

// TestNop verifies the no-op logger stays silent
func TestNop(t *testing.T) {
	l := Nop()
	l.Error("should vanish")
	require.NoError(t, l.Close())
}

// TestNewFile verifies file creation including parent directories
func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hublink.log")
	l, err := NewFile(LevelInfo, path)
	require.NoError(t, err)

	l.Info("written to disk")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to disk")
}
