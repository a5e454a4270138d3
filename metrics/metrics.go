// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	NameSpace = "choria"
	Subsystem = "svcctl"

	// InvocationCount counts service manager invocations by verb and outcome
	InvocationCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "invocation_count"),
		Help: "How many times the service manager was invoked",
	}, []string{"verb", "condition"})

	// InvocationTime is a summary of the time taken by service manager invocations
	InvocationTime = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "invocation_duration_seconds"),
		Help: "Time taken to invoke the service manager",
	}, []string{"verb"})

	// PermissionDeniedCount counts invocations rejected by privilege elevation
	PermissionDeniedCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "permission_denied_count"),
		Help: "How many invocations were rejected by privilege elevation",
	}, []string{"verb"})

	// HealthCheckTime is a summary of the time taken by service health checks
	HealthCheckTime = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "healthcheck_duration_seconds"),
		Help: "Time taken to perform a service health check",
	}, []string{"service", "format"})

	// HealthStatusCount counts health check results by status
	HealthStatusCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "healthcheck_status_count"),
		Help: "Health check results by status",
	}, []string{"service", "format", "status"})
)

// RegisterMetrics registers all collectors with the default registry
func RegisterMetrics() {
	MustRegister(prometheus.DefaultRegisterer)
}

// MustRegister registers all collectors with reg
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(InvocationCount)
	reg.MustRegister(InvocationTime)
	reg.MustRegister(PermissionDeniedCount)
	reg.MustRegister(HealthCheckTime)
	reg.MustRegister(HealthStatusCount)
}

// WriteTextfile writes all gathered metrics to path in the node exporter textfile format
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return prometheus.WriteToTextfile(path, gatherer)
}
