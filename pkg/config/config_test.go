package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "MIDI Controller", cfg.LocalName)
	assert.Equal(t, 256, cfg.EventBuffer)
	assert.Equal(t, 64, cfg.NotificationBuffer)
	assert.Equal(t, 250*time.Millisecond, cfg.AdvertiseSettle)
	assert.Empty(t, cfg.Sliders)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		expected logrus.Level
	}{
		{name: "debug", logLevel: "debug", expected: logrus.DebugLevel},
		{name: "info", logLevel: "info", expected: logrus.InfoLevel},
		{name: "warn", logLevel: "warn", expected: logrus.WarnLevel},
		{name: "error", logLevel: "error", expected: logrus.ErrorLevel},
		{name: "unknown falls back to info", logLevel: "loud", expected: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}

			logger := cfg.NewLogger()

			assert.NotNil(t, logger)
			assert.Equal(t, tt.expected, logger.GetLevel())

			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			assert.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level: debug
local_name: Studio Faders
advertise_settle: 1s
sliders:
  - label: Mod Wheel
    channel: 1
    cc: 1
  - label: Volume
    channel: 2
    cc: 7
    value: 100
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "Studio Faders", cfg.LocalName)
	assert.Equal(t, time.Second, cfg.AdvertiseSettle)
	assert.Equal(t, 256, cfg.EventBuffer, "unset fields MUST keep defaults")
	assert.Equal(t, 64, cfg.NotificationBuffer)

	require.Len(t, cfg.Sliders, 2)
	assert.Equal(t, "Volume", cfg.Sliders[1].Label)
	assert.Equal(t, 2, cfg.Sliders[1].Channel)
	assert.Equal(t, 7, cfg.Sliders[1].Controller)
	assert.Equal(t, 100.0, cfg.Sliders[1].Value)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "malformed yaml", yaml: "log_level: [debug"},
		{name: "unknown log level", yaml: "log_level: loud"},
		{name: "negative buffer", yaml: "event_buffer: -1"},
		{name: "slider channel out of range", yaml: "sliders:\n  - {label: x, channel: 17, cc: 1}"},
		{name: "slider controller out of range", yaml: "sliders:\n  - {label: x, channel: 1, cc: 0}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "blemidi.yaml")
		require.NoError(t, os.WriteFile(path, []byte("local_name: Desk\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "Desk", cfg.LocalName)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
