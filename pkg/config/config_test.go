package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/namefix/pkg/config"
)

func TestLoadConfig_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "log level", content: "logging:\n  level: loud\n", want: config.ErrInvalidLogLevel},
		{name: "log format", content: "logging:\n  format: xml\n", want: config.ErrInvalidLogFormat},
		{name: "workers", content: "workspace:\n  workers: -1\n", want: config.ErrInvalidWorkers},
		{name: "max file size", content: "workspace:\n  max_file_size: huge\n", want: config.ErrInvalidMaxFileSize},
		{name: "extension", content: "workspace:\n  extensions: [cs]\n", want: config.ErrInvalidExtension},
		{name: "sample ratio", content: "telemetry:\n  sample_ratio: 1.5\n", want: config.ErrInvalidSampleRatio},
		{
			name:    "rule conflict",
			content: "rules:\n  enabled: [variable-names]\n  disabled: [variable-names]\n",
			want:    config.ErrRuleConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, cfg)
		})
	}
}

func TestLoadConfig_UppercaseLevelAccepted(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "logging:\n  level: DEBUG\n"))
	require.NoError(t, err)
	require.Equal(t, "DEBUG", cfg.Logging.Level)
}
