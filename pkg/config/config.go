// Package config provides configuration loading and validation for namefix.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidWorkers     = errors.New("workers must not be negative")
	ErrInvalidMaxFileSize = errors.New("invalid max file size")
	ErrInvalidSampleRatio = errors.New("sample ratio must be between 0 and 1")
	ErrInvalidExtension   = errors.New("extension must start with a dot")
	ErrRuleConflict       = errors.New("rule both enabled and disabled")
)

// EnvPrefix is the prefix of environment variables overriding configuration,
// e.g. NAMEFIX_LOGGING_LEVEL.
const EnvPrefix = "NAMEFIX"

// FileName is the base name of the configuration file, without extension.
const FileName = ".namefix"

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"text", "json"}
)

// Config holds all configuration for namefix.
type Config struct {
	Rules     RulesConfig     `mapstructure:"rules"     yaml:"rules"`
	Workspace WorkspaceConfig `mapstructure:"workspace" yaml:"workspace"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// RulesConfig selects rules by ID or glob. An empty Enabled list means all rules.
type RulesConfig struct {
	Enabled  []string `mapstructure:"enabled"  yaml:"enabled"`
	Disabled []string `mapstructure:"disabled" yaml:"disabled"`
}

// WorkspaceConfig controls which files are loaded.
type WorkspaceConfig struct {
	Extensions  []string `mapstructure:"extensions"    yaml:"extensions"`
	Exclude     []string `mapstructure:"exclude"       yaml:"exclude"`
	MaxFileSize string   `mapstructure:"max_file_size" yaml:"max_file_size"`
	Workers     int      `mapstructure:"workers"       yaml:"workers"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// TelemetryConfig configures OTLP export. Telemetry stays off while the
// endpoint is empty.
type TelemetryConfig struct {
	OTLPEndpoint string            `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	OTLPHeaders  map[string]string `mapstructure:"otlp_headers"  yaml:"otlp_headers"`
	OTLPInsecure bool              `mapstructure:"otlp_insecure" yaml:"otlp_insecure"`
	SampleRatio  float64           `mapstructure:"sample_ratio"  yaml:"sample_ratio"`
	// Environment tags logs and the telemetry resource, e.g. "ci" or "dev".
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// LoadConfig loads configuration from file and environment variables. An
// empty configPath searches ".", "./config" and $HOME for .namefix.yaml;
// a missing file there is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(FileName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("$HOME")
	}

	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	defaults := Default()

	viperCfg.SetDefault("rules.enabled", defaults.Rules.Enabled)
	viperCfg.SetDefault("rules.disabled", defaults.Rules.Disabled)

	viperCfg.SetDefault("workspace.extensions", defaults.Workspace.Extensions)
	viperCfg.SetDefault("workspace.exclude", defaults.Workspace.Exclude)
	viperCfg.SetDefault("workspace.max_file_size", defaults.Workspace.MaxFileSize)
	viperCfg.SetDefault("workspace.workers", defaults.Workspace.Workers)

	viperCfg.SetDefault("logging.level", defaults.Logging.Level)
	viperCfg.SetDefault("logging.format", defaults.Logging.Format)

	viperCfg.SetDefault("telemetry.otlp_endpoint", defaults.Telemetry.OTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", defaults.Telemetry.OTLPInsecure)
	viperCfg.SetDefault("telemetry.sample_ratio", defaults.Telemetry.SampleRatio)
	viperCfg.SetDefault("telemetry.environment", defaults.Telemetry.Environment)
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if !slices.Contains(validLevels, strings.ToLower(config.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	if !slices.Contains(validFormats, strings.ToLower(config.Logging.Format)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Workspace.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, config.Workspace.Workers)
	}

	if size := strings.TrimSpace(config.Workspace.MaxFileSize); size != "" {
		if _, err := humanize.ParseBytes(size); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidMaxFileSize, config.Workspace.MaxFileSize, err)
		}
	}

	for _, ext := range config.Workspace.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
		}
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	for _, id := range config.Rules.Enabled {
		if slices.Contains(config.Rules.Disabled, id) {
			return fmt.Errorf("%w: %s", ErrRuleConflict, id)
		}
	}

	return nil
}
