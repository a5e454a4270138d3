// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package systemctl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/choria-io/svcctl/model"
)

// CommandError is returned when an invocation did not have the desired effect,
// it wraps one of the model sentinel errors
type CommandError struct {
	Verb      string
	Service   string
	ExitCode  int
	Stderr    string
	Condition model.Condition
	Err       error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("systemctl %s %s: %v", e.Verb, e.Service, e.Err)
	if e.ExitCode > 0 {
		msg = fmt.Sprintf("%s (exit code %d)", msg, e.ExitCode)
	}

	stderr := strings.TrimSpace(e.Stderr)
	if stderr != "" && !strings.Contains(msg, stderr) {
		msg = fmt.Sprintf("%s: %s", msg, stderr)
	}

	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func newCommandError(event *model.InvocationEvent, stderr string, err error) *CommandError {
	cerr := &CommandError{
		Verb:      event.Verb,
		Service:   event.Service,
		ExitCode:  event.ExitCode,
		Stderr:    stderr,
		Condition: event.Condition,
		Err:       event.Condition.Err(),
	}

	if cerr.Err == nil {
		cerr.Err = model.ErrCommandFailed
	}

	if err != nil && !errors.Is(err, cerr.Err) {
		cerr.Err = fmt.Errorf("%w: %w", cerr.Err, err)
	}

	return cerr
}

// classify determines the outcome of a single invocation, query verbs treat a non zero
// exit with output as a state report rather than a failure
func classify(query bool, stdout string, stderr string, exitCode int, err error) model.Condition {
	switch {
	case errors.Is(err, model.ErrCommandNotFound):
		return model.ConditionCommandNotFound
	case errors.Is(err, model.ErrTimeout):
		return model.ConditionTimeout
	case err != nil:
		return model.ConditionCommandFailed
	case isNotFound(stdout, stderr):
		return model.ConditionNotInstalled
	case exitCode == 0:
		return model.ConditionOK
	case isElevatedCommandMissing(stderr):
		return model.ConditionCommandNotFound
	case isPermissionDenied(stderr):
		return model.ConditionPermissionDenied
	case query && strings.TrimSpace(stdout) != "":
		return model.ConditionOK
	default:
		return model.ConditionCommandFailed
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")

	return strings.TrimSpace(line)
}
