package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteDefault when the target already exists.
var ErrConfigExists = errors.New("config file already exists")

// Workspace defaults.
const (
	DefaultMaxFileSize = "1MB"
	DefaultWorkers     = 0
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultSampleRatio samples every trace when telemetry is enabled.
const DefaultSampleRatio = 1.0

const configFileMode = 0o600

// Default returns the configuration used when no file or environment
// variable overrides a value.
func Default() Config {
	return Config{
		Rules: RulesConfig{
			Enabled:  []string{},
			Disabled: []string{},
		},
		Workspace: WorkspaceConfig{
			Extensions:  []string{".cs", ".vb"},
			Exclude:     []string{"bin/**", "obj/**", ".git/**", "*.Designer.cs"},
			MaxFileSize: DefaultMaxFileSize,
			Workers:     DefaultWorkers,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Telemetry: TelemetryConfig{
			OTLPHeaders: map[string]string{},
			SampleRatio: DefaultSampleRatio,
		},
	}
}

// DefaultYAML renders Default as a YAML document.
func DefaultYAML() ([]byte, error) {
	out, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("marshal default config: %w", err)
	}

	return out, nil
}

// WriteDefault writes the default configuration to path. An existing file
// is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	content, err := DefaultYAML()
	if err != nil {
		return err
	}

	err = os.WriteFile(path, content, configFileMode)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
