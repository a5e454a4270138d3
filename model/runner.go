// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

//go:generate mockgen -source runner.go -destination modelmocks/runner.go -package modelmocks

import (
	"context"
	"time"
)

// ExtendedExecOptions describes a single subprocess invocation
type ExtendedExecOptions struct {
	// Command is the binary to run, looked up in PATH when not absolute
	Command string
	// Args are passed to Command verbatim, no shell is involved
	Args []string
	// Environment is appended to the fixed runner environment
	Environment []string
	// Timeout kills the process when exceeded, 0 means no timeout
	Timeout time.Duration
}

// CommandRunner runs commands and captures their output. A non zero exit code is
// not an error, err is only set when the process could not be run to completion.
type CommandRunner interface {
	Execute(ctx context.Context, cmd string, args ...string) (stdout []byte, stderr []byte, exitCode int, err error)
	ExecuteWithOptions(ctx context.Context, opts ExtendedExecOptions) (stdout []byte, stderr []byte, exitCode int, err error)
}
