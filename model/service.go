// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

// ServiceState is the parsed result of a status query
type ServiceState struct {
	Name        string    `json:"name" yaml:"name"`
	Installed   bool      `json:"installed" yaml:"installed"`
	Active      bool      `json:"active" yaml:"active"`
	ActiveState string    `json:"active_state,omitempty" yaml:"active_state,omitempty"`
	Enabled     bool      `json:"enabled" yaml:"enabled"`
	PID         int       `json:"pid" yaml:"pid"`
	Condition   Condition `json:"condition" yaml:"condition"`
}
