package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("debug", "json", &buf)

	log.Debug("hello", zap.String("key", "value"))
	require.NoError(t, log.Sync())

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "debug", record["level"])
	assert.Equal(t, "hello", record["message"])
	assert.Equal(t, "value", record["key"])
}

func TestNewWithOutputLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("warn", "json", &buf)

	log.Info("filtered")
	log.Warn("kept")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "filtered")
	assert.Contains(t, out, "kept")
}

func TestNewWithOutputUnknownLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("shouty", "json", &buf)

	log.Debug("hidden at info")
	log.Info(" visible")
	require.NoError(t, log.Sync())

	assert.NotContains(t, buf.String(), "hidden at info")
	assert.Contains(t, buf.String(), "visible")
}

func TestNewWithOutputConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("info", "console", &buf)

	log.Info("console line")
	require.NoError(t, log.Sync())
	assert.Contains(t, buf.String(), "console line")
}
