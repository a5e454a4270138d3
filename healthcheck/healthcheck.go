// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package healthcheck checks the state of a service and reports the result with Nagios semantics
package healthcheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/choria-io/svcctl/metrics"
	"github.com/choria-io/svcctl/model"
	"github.com/choria-io/svcctl/templates"
)

// DefaultExpression is checked when no expression is given
const DefaultExpression = "Installed && Active"

// ServiceStatus is a service that can report its state
type ServiceStatus interface {
	Name() string
	Status(ctx context.Context) (*model.ServiceState, error)
}

// ParseNagiosExitCode converts a Nagios exit code to a HealthCheckResult with appropriate status
func ParseNagiosExitCode(exitCode int, output string) *model.HealthCheckResult {
	result := &model.HealthCheckResult{
		Output: strings.TrimSpace(output),
	}

	switch exitCode {
	case 0:
		result.Status = model.HealthCheckOK
	case 1:
		result.Status = model.HealthCheckWarning
	case 2:
		result.Status = model.HealthCheckCritical
	default:
		result.Status = model.HealthCheckUnknown
	}

	return result
}

// Check queries the status of svc once and evaluates expression against it. The returned
// environment holds the queried state and can be used for further checks.
func Check(ctx context.Context, svc ServiceStatus, expression string, log model.Logger) (*model.HealthCheckResult, *templates.Env, error) {
	if expression == "" {
		expression = DefaultExpression
	}

	timer := prometheus.NewTimer(metrics.HealthCheckTime.WithLabelValues(svc.Name(), "expr"))
	defer timer.ObserveDuration()

	state, err := svc.Status(ctx)
	if err != nil {
		return nil, nil, err
	}

	env := templates.NewEnv(state, nil)
	result := evaluate(state, expression, env)

	log.Debug("Evaluated health check", "expression", expression, "status", result.Status.String())
	metrics.HealthStatusCount.WithLabelValues(svc.Name(), "expr", result.Status.String()).Inc()

	return result, env, nil
}

func evaluate(state *model.ServiceState, expression string, env *templates.Env) *model.HealthCheckResult {
	result := &model.HealthCheckResult{
		Service:    state.Name,
		Expression: expression,
	}

	if !state.Installed {
		result.Status = model.HealthCheckCritical
		result.Output = fmt.Sprintf("%s is not installed", state.Name)
		return result
	}

	ok, err := templates.EvaluateBool(expression, env)
	switch {
	case err != nil:
		result.Status = model.HealthCheckUnknown
		result.Output = err.Error()
	case ok:
		result.Status = model.HealthCheckOK
		result.Output = fmt.Sprintf("%s matched %s: %s", state.Name, expression, describe(state))
	default:
		result.Status = model.HealthCheckCritical
		result.Output = fmt.Sprintf("%s did not match %s: %s", state.Name, expression, describe(state))
	}

	return result
}

func describe(state *model.ServiceState) string {
	active := state.ActiveState
	if active == "" {
		active = "unknown"
	}

	if state.PID > 0 {
		return fmt.Sprintf("%s pid %d", active, state.PID)
	}

	return active
}

// Worst is the result with the most severe status, UNKNOWN ranks below CRITICAL
func Worst(results ...*model.HealthCheckResult) *model.HealthCheckResult {
	var worst *model.HealthCheckResult

	rank := func(s model.HealthCheckStatus) int {
		switch s {
		case model.HealthCheckOK:
			return 0
		case model.HealthCheckWarning:
			return 1
		case model.HealthCheckUnknown:
			return 2
		default:
			return 3
		}
	}

	for _, r := range results {
		if r == nil {
			continue
		}

		if worst == nil || rank(r.Status) > rank(worst.Status) {
			worst = r
		}
	}

	return worst
}
