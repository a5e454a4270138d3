// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/choria-io/fisk"
	"github.com/goccy/go-yaml"
	"github.com/kballard/go-shellquote"

	iu "github.com/choria-io/svcctl/internal/util"
	"github.com/choria-io/svcctl/model"
	"github.com/choria-io/svcctl/systemctl"
)

const (
	UseSudoAuto   = "auto"
	UseSudoAlways = "always"
	UseSudoNever  = "never"

	// SystemConfigFile is used when no user configuration exists
	SystemConfigFile = "/etc/choria/svcctl/config.yaml"
)

// Config holds settings shared by all service handles
type Config struct {
	// Systemctl is the service manager binary, either a name found in PATH or an absolute path
	Systemctl string `yaml:"systemctl"`

	// Sudo is the privilege elevation command prefixed to mutating operations,
	// it is split using shell quoting rules
	Sudo string `yaml:"sudo"`

	// UseSudo controls elevation: auto elevates when not running as root
	// Valid values: auto, always, never
	UseSudo string `yaml:"use_sudo"`

	// Timeout bounds every invocation (e.g. "10s"), empty or 0 means no timeout
	Timeout         string `yaml:"timeout"`
	timeoutDuration time.Duration

	// LogLevel is the log level to use
	// Valid values: debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	sudoCommand []string
	source      string
}

// DefaultConfig is the configuration used when no file is found
func DefaultConfig() *Config {
	return &Config{
		Systemctl:   systemctl.DefaultSystemctl,
		Sudo:        shellquote.Join(systemctl.DefaultSudoCommand...),
		UseSudo:     UseSudoAuto,
		LogLevel:    "warn",
		sudoCommand: append([]string{}, systemctl.DefaultSudoCommand...),
	}
}

// UserConfigFile is the per user configuration file location
func UserConfigFile() string {
	if xdg.ConfigHome == "" {
		return ""
	}

	return filepath.Join(xdg.ConfigHome, "choria", "svcctl", "config.yaml")
}

// ParseConfig parses a YAML configuration document, unset values take defaults
func ParseConfig(c []byte) (*Config, error) {
	cfg := DefaultConfig()

	err := ValidateConfigDocument(c)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(c, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidConfig, err)
	}

	if cfg.Timeout != "" {
		cfg.timeoutDuration, err = fisk.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: timeout: %w", model.ErrInvalidConfig, err)
		}
	}

	cfg.sudoCommand, err = shellquote.Split(cfg.Sudo)
	if err != nil {
		return nil, fmt.Errorf("%w: sudo: %w", model.ErrInvalidConfig, err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfig loads path, or when path is empty the first of the user and system
// configuration files that exist, falling back to defaults
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		var found bool
		path, found = iu.FirstExistingFile(UserConfigFile(), SystemConfigFile)
		if !found {
			return DefaultConfig(), nil
		}
	}

	c, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := ParseConfig(c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.source = path

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Systemctl == "" {
		return fmt.Errorf("%w: systemctl must be set", model.ErrInvalidConfig)
	}

	if c.timeoutDuration < 0 {
		return fmt.Errorf("%w: timeout may not be negative", model.ErrInvalidConfig)
	}

	switch c.UseSudo {
	case UseSudoAuto, UseSudoAlways:
		if len(c.sudoCommand) == 0 {
			return fmt.Errorf("%w: sudo must be set when use_sudo is %s", model.ErrInvalidConfig, c.UseSudo)
		}
	case UseSudoNever:
	default:
		return fmt.Errorf("%w: use_sudo must be one of: auto, always, never", model.ErrInvalidConfig)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level must be one of: debug, info, warn, error", model.ErrInvalidConfig)
	}

	return nil
}

// Source is the file the configuration was loaded from, empty for defaults
func (c *Config) Source() string {
	return c.source
}

// TimeoutDuration is the parsed Timeout
func (c *Config) TimeoutDuration() time.Duration {
	return c.timeoutDuration
}

// SudoCommand is the elevation command for a process running with euid, nil when no elevation is needed
func (c *Config) SudoCommand(euid int) []string {
	switch {
	case c.UseSudo == UseSudoNever:
		return nil
	case c.UseSudo == UseSudoAuto && euid == 0:
		return nil
	default:
		return append([]string{}, c.sudoCommand...)
	}
}
