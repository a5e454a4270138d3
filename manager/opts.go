// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"fmt"
	"time"

	"github.com/choria-io/svcctl/model"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager) error

// WithConfig sets the configuration to use
func WithConfig(cfg *Config) Option {
	return func(m *Manager) error {
		if cfg == nil {
			return fmt.Errorf("%w: configuration is required", model.ErrInvalidConfig)
		}

		err := cfg.Validate()
		if err != nil {
			return err
		}

		m.cfg = cfg

		return nil
	}
}

// WithConfigFile loads configuration from path, an empty path searches the default locations
func WithConfigFile(path string) Option {
	return func(m *Manager) error {
		cfg, err := LoadConfig(path)
		if err != nil {
			return err
		}

		if cfg.Source() != "" {
			m.log.Debug("Loaded configuration", "file", cfg.Source())
		}

		m.cfg = cfg

		return nil
	}
}

// WithRunner sets the command runner shared by all services
func WithRunner(runner model.CommandRunner) Option {
	return func(m *Manager) error {
		m.runner = runner
		return nil
	}
}

// WithTimeout overrides the configured timeout, 0 disables it
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) error {
		if timeout < 0 {
			return fmt.Errorf("invalid timeout %v", timeout)
		}

		m.timeout = &timeout

		return nil
	}
}

// WithoutSudo disables privilege elevation regardless of configuration
func WithoutSudo() Option {
	return func(m *Manager) error {
		m.noSudo = true
		return nil
	}
}

func withEffectiveUID(euid int) Option {
	return func(m *Manager) error {
		m.euid = euid
		return nil
	}
}
