package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvListen overrides Config.Listen.
const EnvListen = "ARTISAN_LISTEN"

// Config is the serve configuration file.
type Config struct {
	Listen   string    `yaml:"listen"`
	Types    string    `yaml:"types"`
	FailFast bool      `yaml:"fail_fast"`
	Log      LogConfig `yaml:"log"`
}

// LogConfig selects the log level and output format (json or console).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig reads a configuration file. Unknown keys are rejected, and a
// relative types path is taken relative to the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{
		Listen: ":8080",
		Types:  "types.yaml",
		Log:    LogConfig{Level: "info", Format: "json"},
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv(EnvListen); v != "" {
		cfg.Listen = v
	}
	if !filepath.IsAbs(cfg.Types) {
		cfg.Types = filepath.Join(filepath.Dir(path), cfg.Types)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("config: listen is required")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// newLogger builds the process logger for cfg, writing to w.
func newLogger(cfg LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
