// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

// Condition classifies the outcome of a single service manager invocation.
//
// Mutating operations turn every condition other than ConditionOK into an error,
// queries treat ConditionNotInstalled and ConditionCommandFailed as normal data.
type Condition string

const (
	ConditionUnknown          Condition = ""
	ConditionOK               Condition = "ok"
	ConditionNotInstalled     Condition = "not_installed"
	ConditionPermissionDenied Condition = "permission_denied"
	ConditionCommandFailed    Condition = "command_failed"
	ConditionCommandNotFound  Condition = "command_not_found"
	ConditionTimeout          Condition = "timeout"
)

func (c Condition) String() string {
	if c == ConditionUnknown {
		return "unknown"
	}

	return string(c)
}

// Err is the sentinel error matching the condition, nil for ConditionOK
func (c Condition) Err() error {
	switch c {
	case ConditionOK:
		return nil
	case ConditionPermissionDenied:
		return ErrPermissionDenied
	case ConditionCommandNotFound:
		return ErrCommandNotFound
	case ConditionTimeout:
		return ErrTimeout
	default:
		return ErrCommandFailed
	}
}

// IsFatal indicates that even query operations should report the condition as an error
func (c Condition) IsFatal() bool {
	return c == ConditionCommandNotFound || c == ConditionTimeout
}
