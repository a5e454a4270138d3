// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
)

const InvocationEventProtocol = "io.choria.svcctl.v1.invocation"

// InvocationEvent records a single run of the service manager
type InvocationEvent struct {
	Protocol   string        `json:"protocol" yaml:"protocol"`
	EventID    string        `json:"event_id" yaml:"event_id"`
	TimeStamp  time.Time     `json:"timestamp" yaml:"timestamp"`
	Service    string        `json:"service" yaml:"service"`
	Verb       string        `json:"verb" yaml:"verb"`
	Command    string        `json:"command" yaml:"command"`
	Args       []string      `json:"args" yaml:"args"`
	Privileged bool          `json:"privileged" yaml:"privileged"`
	ExitCode   int           `json:"exit_code" yaml:"exit_code"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Condition  Condition     `json:"condition" yaml:"condition"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
}

func NewInvocationEvent(service string, verb string) *InvocationEvent {
	return &InvocationEvent{
		Protocol:  InvocationEventProtocol,
		EventID:   ksuid.New().String(),
		TimeStamp: time.Now().UTC(),
		Service:   service,
		Verb:      verb,
		ExitCode:  -1,
	}
}

// CommandLine is the command and its arguments joined by spaces
func (e *InvocationEvent) CommandLine() string {
	return strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
}

func (e *InvocationEvent) String() string {
	return fmt.Sprintf("%s %s: %s (exit %d) in %v", e.Verb, e.Service, e.Condition, e.ExitCode, e.Duration.Truncate(time.Millisecond))
}

// LogStatus logs a one line summary of the event at a level matching its condition
func (e *InvocationEvent) LogStatus(log Logger) {
	args := []any{
		"exit_code", e.ExitCode,
		"runtime", e.Duration.Truncate(time.Millisecond),
	}

	if e.Privileged {
		args = append(args, "privileged", true)
	}

	switch e.Condition {
	case ConditionOK:
		log.Info(fmt.Sprintf("%s %s", e.Verb, e.Service), args...)
	case ConditionNotInstalled:
		log.Warn(fmt.Sprintf("%s %s: service is not installed", e.Verb, e.Service), args...)
	default:
		log.Error(fmt.Sprintf("%s %s failed", e.Verb, e.Service), append(args, "condition", e.Condition.String(), "error", e.Error)...)
	}
}
