// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"errors"
)

var (
	ErrServiceNameRequired = errors.New("service name is required")
	ErrCommandNotFound     = errors.New("command not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrCommandFailed       = errors.New("command failed")
	ErrTimeout             = errors.New("command timed out")
	ErrInvalidConfig       = errors.New("invalid configuration")
)
