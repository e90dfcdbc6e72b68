package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Format: "json"}, &buf)

	feed := Component(logger, "feed")
	feed.Debug().Str("mint", "M1").Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "feed", entry["component"])
	assert.Equal(t, "M1", entry["mint"])
	assert.Equal(t, "hello", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "WARN"}, &buf)

	logger.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_DefaultsToInfo(t *testing.T) {
	for _, level := range []string{"", "nonsense"} {
		var buf bytes.Buffer
		logger := New(Config{Level: level}, &buf)

		logger.Debug().Msg("debug")
		logger.Info().Msg("info")

		out := buf.String()
		assert.NotContains(t, out, `"debug"`, "level %q", level)
		assert.Contains(t, out, `"info"`, "level %q", level)
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "console"}, &buf)

	logger.Info().Str("component", "hub").Msg("viewer connected")

	out := buf.String()
	assert.False(t, strings.HasPrefix(out, "{"), "console output should not be JSON: %s", out)
	assert.Contains(t, out, "viewer connected")
}
