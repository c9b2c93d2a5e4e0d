// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for gitmount.
//
// Configuration is loaded from a single file specified by:
//   - GITMOUNT_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. A missing path means
// defaults; a named file that does not exist is an error.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for gitmount.
type Config struct {
	// Author identifies the committer recorded on every commit the
	// mounted filesystem creates.
	Author AuthorConfig `yaml:"author"`

	// Mount configures filesystem behavior.
	Mount MountConfig `yaml:"mount"`

	// LogLevel sets the minimum severity emitted: debug, info, warn,
	// or error. Defaults to info.
	LogLevel string `yaml:"log_level"`
}

// AuthorConfig identifies the commit author.
type AuthorConfig struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// MountConfig configures filesystem behavior.
type MountConfig struct {
	// PersistOnRelease commits the final buffer contents when the
	// last handle on a file closes. When false, written data is
	// readable through open handles but discarded on the last close.
	PersistOnRelease bool `yaml:"persist_on_release"`

	// AllowOther permits users other than the mounting user to
	// access the mountpoint. Requires user_allow_other in
	// /etc/fuse.conf.
	AllowOther bool `yaml:"allow_other"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Author: AuthorConfig{
			Name:  "gitmount",
			Email: "gitmount@localhost",
		},
		Mount: MountConfig{
			PersistOnRelease: true,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from path. An empty path falls back to the
// GITMOUNT_CONFIG environment variable, and if that is also unset the
// defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("GITMOUNT_CONFIG")
	}
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Author.Name == "" {
		return fmt.Errorf("author.name must not be empty")
	}
	if c.Author.Email == "" {
		return fmt.Errorf("author.email must not be empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured log level to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log_level %q", c.LogLevel)
}
