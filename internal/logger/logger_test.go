package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for input, want := range map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
	} {
		got, err := ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestJSONLoggerWritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "json", "debug")
	require.NoError(t, err)

	log.Error("Pipeline", errors.New("stage exploded"), map[string]interface{}{"generation": 3})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Pipeline", entry["component"])
	assert.Equal(t, "stage exploded", entry["error"])
	assert.Equal(t, float64(3), entry["generation"])
	assert.Equal(t, "error", entry["level"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "json", "info")
	require.NoError(t, err)

	log.Debug("Session", "hidden", nil)
	assert.Zero(t, buf.Len())
}

func TestUnknownFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml", "info")
	assert.Error(t, err)
}
