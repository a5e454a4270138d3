// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package procinfo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/choria-io/svcctl/model"
)

// ErrNoProcess is returned when there is no running process for a pid
var ErrNoProcess = errors.New("no such process")

// Lookup gathers details about the running process pid, fields that cannot be read are left empty
func Lookup(ctx context.Context, pid int) (*model.ProcessState, error) {
	if pid <= 0 {
		return nil, ErrNoProcess
	}

	exists, err := process.PidExistsWithContext(ctx, int32(pid))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrNoProcess, pid)
	}

	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil, fmt.Errorf("%w: %d", ErrNoProcess, pid)
		}
		return nil, err
	}

	state := &model.ProcessState{PID: pid}

	name, err := proc.NameWithContext(ctx)
	if err == nil {
		state.Name = name
	}

	cmdline, err := proc.CmdlineWithContext(ctx)
	if err == nil {
		state.Cmdline = cmdline
	}

	user, err := proc.UsernameWithContext(ctx)
	if err == nil {
		state.User = user
	}

	mem, err := proc.MemoryInfoWithContext(ctx)
	if err == nil && mem != nil {
		state.RSSBytes = mem.RSS
	}

	created, err := proc.CreateTimeWithContext(ctx)
	if err == nil && created > 0 {
		state.Started = time.UnixMilli(created)
	}

	return state, nil
}
