package logging

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json", Output: &buf})

	logger.Info().Msg("dropped")
	pipeline := Component(logger, "pipeline")
	pipeline.Warn().Int("input", 3).Msg("kept")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "pipeline", entry["component"])
	assert.Equal(t, float64(3), entry["input"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNew_Defaults(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "loud", Output: &buf})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	console := New(Config{Format: "console", Output: &buf})
	console.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}
