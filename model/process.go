// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import "time"

// ProcessState describes the main process of a running service
type ProcessState struct {
	PID      int       `json:"pid" yaml:"pid"`
	Name     string    `json:"name" yaml:"name"`
	Cmdline  string    `json:"cmdline" yaml:"cmdline"`
	User     string    `json:"user,omitempty" yaml:"user,omitempty"`
	RSSBytes uint64    `json:"rss_bytes" yaml:"rss_bytes"`
	Started  time.Time `json:"started" yaml:"started"`
}
