package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftyprep/internal/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 100*time.Millisecond, cfg.Processing.DebounceWindow())
	assert.Equal(t, 10, cfg.Processing.HistoryDepth)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[processing]
debounce_ms = 250
history_depth = 20

[logging]
level = "debug"
format = "json"

[storage]
settings_path = "/tmp/adjust.yaml"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Processing.DebounceMS)
	assert.Equal(t, 20, cfg.Processing.HistoryDepth)
	assert.Equal(t, 4096, cfg.Processing.MaxDimension)
	assert.Equal(t, "json", cfg.Logging.Format)

	settings, err := cfg.Storage.SettingsFile()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/adjust.yaml", settings)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[processing]\ndither = true\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processing.dither")
}

func TestLoadValidates(t *testing.T) {
	path := writeConfig(t, "[processing]\nhistory_depth = 0\n")

	_, err := Load(path)
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "processing.history_depth", ve.Parameter)
}

func TestLoadRejectsZeroDebounce(t *testing.T) {
	path := writeConfig(t, "[processing]\ndebounce_ms = 0\n")

	_, err := Load(path)
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "processing.debounce_ms", ve.Parameter)
	assert.Equal(t, 0, ve.Value)
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "[processing\n")

	_, err := Load(path)
	assert.Error(t, err)
}
