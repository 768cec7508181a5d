// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/seulG/rust-proc-qq/client"
)

// Config is the bot configuration, loaded from a single YAML file.
// Account credentials never live here; they come from the environment.
type Config struct {
	// EngineURL is the websocket endpoint of the protocol engine.
	EngineURL string `yaml:"engine_url"`

	// SessionFile is where the reusable session credential is kept.
	SessionFile string `yaml:"session_file"`

	// DeviceFile is where the device profile is kept. Generated on
	// first run when absent.
	DeviceFile string `yaml:"device_file"`

	// QRImageFile is where the login QR code image is written when the
	// QR strategy runs.
	QRImageFile string `yaml:"qr_image_file"`

	Reconnect ReconnectConfig `yaml:"reconnect"`
	Log       LogConfig       `yaml:"log"`
}

// ReconnectConfig bounds the reconnection loop. Durations are strings
// in time.ParseDuration syntax ("1s", "2m").
type ReconnectConfig struct {
	BaseInterval string `yaml:"base_interval"`
	MaxInterval  string `yaml:"max_interval"`

	// MaxAttempts of zero means never give up.
	MaxAttempts int `yaml:"max_attempts"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// Default returns the base configuration merged under the config file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	root := filepath.Join(homeDir, ".config", "procqq")

	return &Config{
		EngineURL:   "ws://127.0.0.1:8439/engine",
		SessionFile: filepath.Join(root, "session.token"),
		DeviceFile:  filepath.Join(root, "device.json"),
		QRImageFile: filepath.Join(root, "login-qr.png"),
		Reconnect: ReconnectConfig{
			BaseInterval: "1s",
			MaxInterval:  "60s",
			MaxAttempts:  0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFile loads the configuration file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.EngineURL == "" {
		errs = append(errs, fmt.Errorf("engine_url is required"))
	}
	if c.SessionFile == "" {
		errs = append(errs, fmt.Errorf("session_file is required"))
	}
	if _, err := c.ReconnectPolicy(); err != nil {
		errs = append(errs, err)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn, or error"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json"))
	}

	return errors.Join(errs...)
}

// ReconnectPolicy parses the reconnect section.
func (c *Config) ReconnectPolicy() (client.ReconnectPolicy, error) {
	base, err := time.ParseDuration(c.Reconnect.BaseInterval)
	if err != nil {
		return client.ReconnectPolicy{}, fmt.Errorf("reconnect.base_interval: %w", err)
	}
	max, err := time.ParseDuration(c.Reconnect.MaxInterval)
	if err != nil {
		return client.ReconnectPolicy{}, fmt.Errorf("reconnect.max_interval: %w", err)
	}
	return client.ReconnectPolicy{
		BaseInterval: base,
		MaxInterval:  max,
		MaxAttempts:  c.Reconnect.MaxAttempts,
	}, nil
}

// Credentials are the account secrets, taken from the environment (a
// .env file in the working directory is honored when present).
type Credentials struct {
	Account  int64  `env:"PROCQQ_ACCOUNT"`
	Password string `env:"PROCQQ_PASSWORD"`
}

// Present reports whether both secrets were provided.
func (c Credentials) Present() bool {
	return c.Account != 0 && c.Password != ""
}

func loadCredentials() (Credentials, error) {
	// Missing .env is fine; the variables may be set directly.
	_ = godotenv.Load()

	var creds Credentials
	if err := env.Parse(&creds); err != nil {
		return Credentials{}, fmt.Errorf("reading credentials from environment: %w", err)
	}
	return creds, nil
}
