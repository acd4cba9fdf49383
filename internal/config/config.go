// Package config loads the application configuration from TOML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"craftyprep/internal/models"
)

// AppDirName is the per-user directory holding config and settings.
const AppDirName = "craftyprep"

type Config struct {
	Processing ProcessingConfig `toml:"processing"`
	Logging    LoggingConfig    `toml:"logging"`
	Storage    StorageConfig    `toml:"storage"`
}

type ProcessingConfig struct {
	DebounceMS     int   `toml:"debounce_ms"`
	HistoryDepth   int   `toml:"history_depth"`
	MaxDimension   int   `toml:"max_dimension"`
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type StorageConfig struct {
	SettingsPath string `toml:"settings_path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Processing: ProcessingConfig{
			DebounceMS:     100,
			HistoryDepth:   10,
			MaxDimension:   4096,
			MaxUploadBytes: 50 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load decodes path over the defaults. A missing file yields the defaults;
// unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	p := c.Processing
	if p.DebounceMS < 1 || p.DebounceMS > 5000 {
		return models.NewValidationError("processing.debounce_ms", p.DebounceMS, "must be between 1 and 5000")
	}
	if p.HistoryDepth < 1 || p.HistoryDepth > 1000 {
		return models.NewValidationError("processing.history_depth", p.HistoryDepth, "must be between 1 and 1000")
	}
	if p.MaxDimension < 1 {
		return models.NewValidationError("processing.max_dimension", p.MaxDimension, "must be positive")
	}
	if p.MaxUploadBytes < 1 {
		return models.NewValidationError("processing.max_upload_bytes", p.MaxUploadBytes, "must be positive")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return models.NewValidationError("logging.format", c.Logging.Format, "must be console or json")
	}
	return nil
}

// DebounceWindow is the slider quiescence window.
func (p ProcessingConfig) DebounceWindow() time.Duration {
	return time.Duration(p.DebounceMS) * time.Millisecond
}

// SettingsFile resolves where the adjustment state is persisted.
func (s StorageConfig) SettingsFile() (string, error) {
	if s.SettingsPath != "" {
		return s.SettingsPath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, AppDirName, "adjustment.yaml"), nil
}

// DefaultPath is the config file consulted when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppDirName, "config.toml")
}
