// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/choria-io/svcctl/internal/cmdrunner"
	iu "github.com/choria-io/svcctl/internal/util"
	"github.com/choria-io/svcctl/model"
	"github.com/choria-io/svcctl/systemctl"
)

// Manager creates service handles sharing one configuration, logger and command runner
type Manager struct {
	cfg        *Config
	log        model.Logger
	userLogger model.Logger
	runner     model.CommandRunner
	euid       int

	timeout *time.Duration
	noSudo  bool

	mu sync.Mutex
}

// NewManager creates a new Manager with the provided loggers
func NewManager(log model.Logger, userLogger model.Logger, opts ...Option) (*Manager, error) {
	mgr := &Manager{log: log, userLogger: userLogger, euid: os.Geteuid()}

	for _, opt := range opts {
		err := opt(mgr)
		if err != nil {
			return nil, err
		}
	}

	if mgr.cfg == nil {
		mgr.cfg = DefaultConfig()
	}

	if mgr.runner == nil {
		runner, err := mgr.NewRunner()
		if err != nil {
			return nil, err
		}
		mgr.runner = runner
	}

	return mgr, nil
}

// Config is the active configuration
func (m *Manager) Config() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cfg
}

// Logger creates a new logger with the provided key-value pairs added to the context
func (m *Manager) Logger(args ...any) (model.Logger, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("invalid logger arguments, must be key value pairs")
	}

	return m.log.With(args...), nil
}

// UserLogger is the logger used for user facing output
func (m *Manager) UserLogger() model.Logger {
	return m.userLogger
}

// NewRunner creates a new command runner instance
func (m *Manager) NewRunner() (model.CommandRunner, error) {
	log, err := m.Logger("component", "runner")
	if err != nil {
		return nil, err
	}

	return cmdrunner.NewCommandRunner(log)
}

// CheckAvailable ensures the configured service manager binary can be found
func (m *Manager) CheckAvailable() error {
	cfg := m.Config()

	path, found, err := iu.ExecutableInPath(cfg.Systemctl)
	if !found {
		return fmt.Errorf("%w: %s: %w", model.ErrCommandNotFound, cfg.Systemctl, err)
	}

	m.log.Debug("Found service manager", "path", path)

	return nil
}

// Service creates a handle for the named service, opts are applied after the configured settings
func (m *Manager) Service(name string, opts ...systemctl.Option) (*systemctl.Service, error) {
	m.mu.Lock()
	cfg := m.cfg
	timeout := cfg.TimeoutDuration()
	if m.timeout != nil {
		timeout = *m.timeout
	}
	sudo := cfg.SudoCommand(m.euid)
	if m.noSudo {
		sudo = nil
	}
	m.mu.Unlock()

	log, err := m.Logger("component", "systemctl")
	if err != nil {
		return nil, err
	}

	svcOpts := []systemctl.Option{
		systemctl.WithSystemctl(cfg.Systemctl),
		systemctl.WithSudo(sudo...),
		systemctl.WithTimeout(timeout),
	}

	return systemctl.New(name, log, m.runner, append(svcOpts, opts...)...)
}
