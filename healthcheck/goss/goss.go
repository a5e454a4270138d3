// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package goss validates goss rules as a service health check
package goss

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/goss-org/goss"
	"github.com/goss-org/goss/outputs"
	gossutil "github.com/goss-org/goss/util"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/choria-io/svcctl/metrics"
	"github.com/choria-io/svcctl/model"
	"github.com/choria-io/svcctl/templates"
)

var (
	ErrRulesNotSpecified = errors.New("check rules not specified")
)

// Execute resolves {{ expression }} placeholders in rules against env and validates the result once
func Execute(ctx context.Context, rules []byte, env *templates.Env, userLogger model.Logger, log model.Logger) (*model.HealthCheckResult, error) {
	if len(bytes.TrimSpace(rules)) == 0 {
		return nil, ErrRulesNotSpecified
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	resolved, err := templates.ResolveTemplateString(string(rules), env)
	if err != nil {
		return nil, err
	}

	tf, err := os.CreateTemp("", "svcctl-goss-*.yaml")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tf.Name())

	_, err = tf.WriteString(resolved)
	if err != nil {
		tf.Close()
		return nil, err
	}
	err = tf.Close()
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	cfg, err := gossutil.NewConfig(
		gossutil.WithMaxConcurrency(1),
		gossutil.WithResultWriter(&out),
		gossutil.WithSpecFile(tf.Name()),
	)
	if err != nil {
		return nil, err
	}

	log.Info("Executing goss check", "service", env.Name)

	timer := prometheus.NewTimer(metrics.HealthCheckTime.WithLabelValues(env.Name, "goss"))
	_, err = goss.Validate(cfg)
	timer.ObserveDuration()
	if err != nil {
		return nil, err
	}

	results := &outputs.StructuredOutput{}
	err = json.Unmarshal(out.Bytes(), results)
	if err != nil {
		return nil, err
	}

	result := &model.HealthCheckResult{
		Service:    env.Name,
		Expression: "goss",
		Output:     results.SummaryLine,
		Status:     model.HealthCheckOK,
	}

	if results.Summary.Failed > 0 {
		result.Status = model.HealthCheckCritical
	}

	if userLogger != nil {
		for _, res := range results.Results {
			if res.Result == 0 {
				userLogger.Debug(res.SummaryLineCompact)
			} else {
				userLogger.Error(res.SummaryLineCompact)
			}
		}
	}

	metrics.HealthStatusCount.WithLabelValues(env.Name, "goss", result.Status.String()).Inc()

	return result, nil
}
