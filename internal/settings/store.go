// Package settings persists the last adjustment state between runs.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"craftyprep/internal/models"
)

// SchemaVersion is written with every record.
const SchemaVersion = 1

// ErrUnsupportedVersion is returned for records written by a newer schema.
var ErrUnsupportedVersion = errors.New("unsupported settings version")

// Record is the on-disk form of an AdjustmentState.
type Record struct {
	Version    int             `yaml:"version"`
	Brightness int             `yaml:"brightness"`
	Contrast   int             `yaml:"contrast"`
	Threshold  int             `yaml:"threshold"`
	Preset     models.PresetID `yaml:"preset"`
}

// NewRecord wraps state at the current schema version.
func NewRecord(state models.AdjustmentState) Record {
	return Record{
		Version:    SchemaVersion,
		Brightness: state.Brightness,
		Contrast:   state.Contrast,
		Threshold:  state.Threshold,
		Preset:     state.Preset,
	}
}

// State converts the record back, validating every field.
func (r Record) State() (models.AdjustmentState, error) {
	if r.Version < 1 || r.Version > SchemaVersion {
		return models.AdjustmentState{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, r.Version)
	}
	preset := r.Preset
	if preset == "" {
		preset = models.PresetAuto
	}
	state := models.AdjustmentState{
		Brightness: r.Brightness,
		Contrast:   r.Contrast,
		Threshold:  r.Threshold,
		Preset:     preset,
	}
	if err := state.Validate(); err != nil {
		return models.AdjustmentState{}, err
	}
	return state, nil
}

// Store reads and writes a single YAML record.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted state. ok is false when nothing has been
// saved yet.
func (s *Store) Load() (state models.AdjustmentState, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.AdjustmentState{}, false, nil
		}
		return models.AdjustmentState{}, false, fmt.Errorf("failed to read settings: %w", err)
	}

	var record Record
	if err := yaml.Unmarshal(data, &record); err != nil {
		return models.AdjustmentState{}, false, fmt.Errorf("failed to parse settings %s: %w", s.path, err)
	}

	state, err = record.State()
	if err != nil {
		return models.AdjustmentState{}, false, err
	}
	return state, true, nil
}

// Save writes state atomically.
func (s *Store) Save(state models.AdjustmentState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(NewRecord(state))
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".adjustment-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
