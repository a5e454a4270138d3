// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package systemctl manages a single systemd service by invoking the systemctl
// command and parsing its human readable output.
package systemctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/choria-io/svcctl/metrics"
	"github.com/choria-io/svcctl/model"
)

const (
	VerbStart     = "start"
	VerbStop      = "stop"
	VerbRestart   = "restart"
	VerbReload    = "reload"
	VerbEnable    = "enable"
	VerbDisable   = "disable"
	VerbStatus    = "status"
	VerbIsEnabled = "is-enabled"

	// DefaultSystemctl is the service manager binary used unless WithSystemctl is given
	DefaultSystemctl = "systemctl"
)

// DefaultSudoCommand is the elevation prefix used when not running as root, -n makes
// sudo fail instead of prompting when no passwordless rule matches
var DefaultSudoCommand = []string{"sudo", "-n"}

// systemdEnvironment disables colors and the pager so output is stable plain text
var systemdEnvironment = []string{"SYSTEMD_COLORS=0", "SYSTEMD_PAGER="}

// Option configures a Service
type Option func(*Service) error

// WithSystemctl sets the service manager binary or path
func WithSystemctl(path string) Option {
	return func(s *Service) error {
		if path == "" {
			return errors.New("systemctl command is required")
		}

		s.systemctl = path

		return nil
	}
}

// WithSudo sets the privilege elevation command used for mutating operations, no arguments disables elevation
func WithSudo(command ...string) Option {
	return func(s *Service) error {
		s.sudo = append([]string{}, command...)
		return nil
	}
}

// WithTimeout bounds every invocation, 0 disables the timeout
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) error {
		if timeout < 0 {
			return fmt.Errorf("invalid timeout %v", timeout)
		}

		s.timeout = timeout

		return nil
	}
}

// Service is a handle on one named systemd service. Every operation performs a
// single systemctl invocation and records its output, the accessors parse the
// output of the most recent invocation and never run a command themselves.
type Service struct {
	name      string
	log       model.Logger
	runner    model.CommandRunner
	systemctl string
	sudo      []string
	timeout   time.Duration

	stdout   string
	stderr   string
	exitCode int
	last     *model.InvocationEvent

	mu sync.Mutex
}

// New creates a handle for the service name, the service does not need to exist
func New(name string, log model.Logger, runner model.CommandRunner, opts ...Option) (*Service, error) {
	if name == "" {
		return nil, model.ErrServiceNameRequired
	}

	if runner == nil {
		return nil, errors.New("command runner is required")
	}

	s := &Service{
		name:      name,
		log:       log.With("service", name),
		runner:    runner,
		systemctl: DefaultSystemctl,
		exitCode:  -1,
	}

	if os.Geteuid() != 0 {
		s.sudo = append([]string{}, DefaultSudoCommand...)
	}

	for _, opt := range opts {
		err := opt(s)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Name is the name of the managed service
func (s *Service) Name() string {
	return s.name
}

// Start starts the service
func (s *Service) Start(ctx context.Context) error {
	return s.mutate(ctx, VerbStart)
}

// Stop stops the service
func (s *Service) Stop(ctx context.Context) error {
	return s.mutate(ctx, VerbStop)
}

// Restart restarts the service, starting it when not running
func (s *Service) Restart(ctx context.Context) error {
	return s.mutate(ctx, VerbRestart)
}

// Reload asks the service to reload its configuration
func (s *Service) Reload(ctx context.Context) error {
	return s.mutate(ctx, VerbReload)
}

// Enable configures the service to start on boot
func (s *Service) Enable(ctx context.Context) error {
	return s.mutate(ctx, VerbEnable)
}

// Disable stops the service from starting on boot
func (s *Service) Disable(ctx context.Context) error {
	return s.mutate(ctx, VerbDisable)
}

// Status runs systemctl status and returns the parsed state. A service that is
// stopped or not installed is reported in the state, errors are only returned
// when systemctl could not be run.
func (s *Service) Status(ctx context.Context) (*model.ServiceState, error) {
	err := s.query(ctx, VerbStatus)
	if err != nil {
		return nil, err
	}

	return s.State(), nil
}

// IsEnabled runs systemctl is-enabled and reports if the unit file state is an enabled one
func (s *Service) IsEnabled(ctx context.Context) (bool, error) {
	err := s.query(ctx, VerbIsEnabled)
	if err != nil {
		return false, err
	}

	return s.Enabled(), nil
}

// State is the parsed state of the most recent invocation
func (s *Service) State() *model.ServiceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &model.ServiceState{
		Name:        s.name,
		Installed:   s.installedUnlocked(),
		Active:      isActive(s.stdout),
		ActiveState: activeState(s.stdout),
		Enabled:     isEnabled(s.stdout),
		PID:         mainPID(s.stdout),
	}

	if s.last != nil {
		state.Condition = s.last.Condition
	}

	return state
}

// Active is true when the last output reports the service as active (running)
func (s *Service) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return isActive(s.stdout)
}

// Enabled is true when the last output reports an enabled unit file state
func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return isEnabled(s.stdout)
}

// Installed is true unless the last output reports the unit as not found, false before any invocation
func (s *Service) Installed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.installedUnlocked()
}

func (s *Service) installedUnlocked() bool {
	if s.last == nil {
		return false
	}

	return !isNotFound(s.stdout, s.stderr)
}

// PID is the main process id of a running service or NoPID
func (s *Service) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return mainPID(s.stdout)
}

// Stdout is the unmodified standard output of the most recent invocation
func (s *Service) Stdout() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stdout
}

// Stderr is the unmodified standard error of the most recent invocation
func (s *Service) Stderr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stderr
}

// ExitCode is the exit code of the most recent invocation, -1 when none completed
func (s *Service) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.exitCode
}

// LastInvocation is a copy of the most recent invocation event, nil before any invocation
func (s *Service) LastInvocation() *model.InvocationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return nil
	}

	event := *s.last
	event.Args = append([]string{}, s.last.Args...)

	return &event
}

func (s *Service) mutate(ctx context.Context, verb string) error {
	event, stderr, err := s.invoke(ctx, verb, true)
	if event.Condition == model.ConditionOK {
		return nil
	}

	return newCommandError(event, stderr, err)
}

func (s *Service) query(ctx context.Context, verb string) error {
	event, stderr, err := s.invoke(ctx, verb, false)
	if err != nil || event.Condition.IsFatal() {
		return newCommandError(event, stderr, err)
	}

	return nil
}

func (s *Service) commandLine(verb string, privileged bool) (string, []string) {
	args := []string{verb, s.name}

	if !privileged || len(s.sudo) == 0 {
		return s.systemctl, args
	}

	return s.sudo[0], append(append(append([]string{}, s.sudo[1:]...), s.systemctl), args...)
}

func (s *Service) invoke(ctx context.Context, verb string, privileged bool) (*model.InvocationEvent, string, error) {
	command, args := s.commandLine(verb, privileged)

	event := model.NewInvocationEvent(s.name, verb)
	event.Command = command
	event.Args = args
	event.Privileged = privileged && len(s.sudo) > 0

	start := time.Now()
	stdout, stderr, exitCode, err := s.runner.ExecuteWithOptions(ctx, model.ExtendedExecOptions{
		Command:     command,
		Args:        args,
		Environment: systemdEnvironment,
		Timeout:     s.timeout,
	})
	event.Duration = time.Since(start)
	event.ExitCode = exitCode
	event.Condition = classify(!privileged, string(stdout), string(stderr), exitCode, err)

	errOut := string(stderr)
	if err != nil && errOut == "" {
		errOut = err.Error()
	}

	switch {
	case err != nil:
		event.Error = err.Error()
	case event.Condition != model.ConditionOK:
		event.Error = firstLine(errOut)
	}

	s.mu.Lock()
	s.stdout = string(stdout)
	s.stderr = errOut
	s.exitCode = exitCode
	s.last = event
	s.mu.Unlock()

	metrics.InvocationCount.WithLabelValues(verb, event.Condition.String()).Inc()
	metrics.InvocationTime.WithLabelValues(verb).Observe(event.Duration.Seconds())
	if event.Condition == model.ConditionPermissionDenied {
		metrics.PermissionDeniedCount.WithLabelValues(verb).Inc()
	}

	s.log.Debug("Invoked service manager", "verb", verb, "exit_code", exitCode, "condition", event.Condition.String(), "runtime", event.Duration)

	return event, errOut, err
}
