// Package settings loads sessionctl configuration.
//
// Settings live in a single JSON file at {UserConfigDir}/sessionctl/settings.json.
// Unknown keys are rejected so typos surface instead of being silently
// ignored. A missing file yields defaults.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// EnvNoTelemetry disables telemetry when set to any non-empty value.
const EnvNoTelemetry = "SESSIONCTL_NO_TELEMETRY"

// Settings is the full configuration surface.
type Settings struct {
	// ClaudeDir overrides the Claude root directory (default ~/.claude).
	ClaudeDir string `json:"claude_dir,omitempty"`

	// LogLevel sets the log verbosity: debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// Telemetry enables anonymous usage reporting. Nil means enabled.
	Telemetry *bool `json:"telemetry,omitempty"`
}

// TelemetryEnabled resolves the telemetry setting against the opt-out env var.
func (s *Settings) TelemetryEnabled() bool {
	if os.Getenv(EnvNoTelemetry) != "" {
		return false
	}
	return s.Telemetry == nil || *s.Telemetry
}

// File returns the settings file path.
func File() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(configDir, "sessionctl", "settings.json"), nil
}

// Load reads the settings file. A missing file is not an error and returns
// defaults; a file with unknown keys or invalid JSON is.
func Load() (*Settings, error) {
	path, err := File()
	if err != nil {
		return nil, err
	}
	return loadFrom(path)
}

func loadFrom(path string) (*Settings, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path derived from user config dir
	if errors.Is(err, fs.ErrNotExist) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var s Settings
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return &s, nil
}

// Save writes the settings file, creating the directory as needed.
func Save(s *Settings) error {
	path, err := File()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
