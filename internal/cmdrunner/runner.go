// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package cmdrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"

	"github.com/choria-io/svcctl/model"
)

var _ model.CommandRunner = (*CommandRunner)(nil)

// BaseEnvironment is the environment every command starts with
var BaseEnvironment = []string{
	"PATH=/usr/bin:/bin:/usr/sbin:/sbin:/usr/local/bin:/usr/local/sbin",
	"LANG=C",
	"LC_ALL=C",
}

// CommandRunner executes system commands and captures their output
type CommandRunner struct {
	logger model.Logger
}

// NewCommandRunner creates a new CommandRunner instance with the provided logger
func NewCommandRunner(log model.Logger) (*CommandRunner, error) {
	return &CommandRunner{logger: log}, nil
}

func (c *CommandRunner) ExecuteWithOptions(ctx context.Context, opts model.ExtendedExecOptions) ([]byte, []byte, int, error) {
	if opts.Command == "" {
		return nil, nil, -1, errors.New("command not specified")
	}

	c.logger.Debug("Running command", "command", opts.Command, "args", opts.Args)

	toCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		toCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(toCtx, opts.Command, opts.Args...)
	cmd.Env = append(append([]string{}, BaseEnvironment...), opts.Environment...)
	cmd.Dir = "/"

	stdout := bytes.NewBuffer([]byte{})
	stderr := bytes.NewBuffer([]byte{})

	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	exitCode := cmd.ProcessState.ExitCode()

	switch {
	case err == nil:
		return stdout.Bytes(), stderr.Bytes(), exitCode, nil

	case errors.Is(toCtx.Err(), context.DeadlineExceeded):
		return stdout.Bytes(), stderr.Bytes(), exitCode, fmt.Errorf("%w: %s after %v", model.ErrTimeout, opts.Command, opts.Timeout)

	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return nil, nil, exitCode, fmt.Errorf("%w: %s: %w", model.ErrCommandNotFound, opts.Command, err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitCode > 0 {
		// non zero exits are reported via the exit code, callers decide what they mean
		return stdout.Bytes(), stderr.Bytes(), exitCode, nil
	}

	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

// Execute runs a command with the given arguments and returns stdout, stderr, exit code, and any error
func (c *CommandRunner) Execute(ctx context.Context, command string, args ...string) ([]byte, []byte, int, error) {
	return c.ExecuteWithOptions(ctx, model.ExtendedExecOptions{Command: command, Args: args})
}
