package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/blemidi/internal/slider"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	LogLevel           string          `yaml:"log_level" default:"info"`
	LocalName          string          `yaml:"local_name" default:"MIDI Controller"`
	EventBuffer        int             `yaml:"event_buffer" default:"256"`
	NotificationBuffer int             `yaml:"notification_buffer" default:"64"`
	AdvertiseSettle    time.Duration   `yaml:"advertise_settle" default:"250ms"`
	Sliders            []slider.Preset `yaml:"sliders"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML file; fields it leaves unset keep their defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults to unset fields.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	defaults.SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if strings.TrimSpace(c.LocalName) == "" {
		errs = append(errs, errors.New("local_name must not be empty"))
	}
	if c.EventBuffer <= 0 {
		errs = append(errs, fmt.Errorf("event_buffer must be positive, got %d", c.EventBuffer))
	}
	if c.NotificationBuffer <= 0 {
		errs = append(errs, fmt.Errorf("notification_buffer must be positive, got %d", c.NotificationBuffer))
	}
	if c.AdvertiseSettle < 0 {
		errs = append(errs, fmt.Errorf("advertise_settle must not be negative, got %s", c.AdvertiseSettle))
	}
	for i, p := range c.Sliders {
		if err := slider.New(p.Label, p.Channel, p.Controller).WithValue(p.Value).Validate(); err != nil {
			errs = append(errs, fmt.Errorf("sliders[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.Level())

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
