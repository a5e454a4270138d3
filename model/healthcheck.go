// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"encoding/json"
	"fmt"
)

type HealthCheckStatus int

const (
	HealthCheckOK       HealthCheckStatus = 0
	HealthCheckWarning  HealthCheckStatus = 1
	HealthCheckCritical HealthCheckStatus = 2
	HealthCheckUnknown  HealthCheckStatus = 3
)

func (s HealthCheckStatus) String() string {
	switch s {
	case HealthCheckOK:
		return "OK"
	case HealthCheckWarning:
		return "WARNING"
	case HealthCheckCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders the status by name
func (s HealthCheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// MarshalYAML renders the status by name
func (s HealthCheckStatus) MarshalYAML() (any, error) {
	return s.String(), nil
}

// ExitCode is the Nagios plugin exit code for the status
func (s HealthCheckStatus) ExitCode() int {
	switch s {
	case HealthCheckOK, HealthCheckWarning, HealthCheckCritical:
		return int(s)
	default:
		return int(HealthCheckUnknown)
	}
}

// HealthCheckResult represents the outcome of a health check
type HealthCheckResult struct {
	Service    string            `json:"service" yaml:"service"`
	Expression string            `json:"expression" yaml:"expression"`
	Status     HealthCheckStatus `json:"status" yaml:"status"`
	Output     string            `json:"output" yaml:"output"`
}

// String renders the result in Nagios plugin output format
func (r *HealthCheckResult) String() string {
	return fmt.Sprintf("%s: %s", r.Status, r.Output)
}
