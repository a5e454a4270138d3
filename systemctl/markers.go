// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package systemctl

import (
	"bufio"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// NoPID is returned by PID when no main process is known, 0 is never used
const NoPID = -1

var (
	activeRunningRe = regexp.MustCompile(`(?m)^\s*Active:\s+active \(running\)`)
	activeStateRe   = regexp.MustCompile(`(?m)^\s*Active:\s+([a-z-]+(?: \([^)]*\))?)`)
	loadedRe        = regexp.MustCompile(`(?m)^\s*Loaded:\s+(\S+)(?:\s+\(([^)]*)\))?`)
	mainPIDRe       = regexp.MustCompile(`(?m)^\s*Main PID:\s+(\d+)`)

	notFoundRes = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*Unit \S+ could not be found`),
		regexp.MustCompile(`(?m)^\s*Loaded:\s+not-found`),
		regexp.MustCompile(`(?m)^Failed to .*(?:Unit \S+ not (?:found|loaded)|No such file or directory)`),
	}

	sudoNotFoundRe = regexp.MustCompile(`(?m)^sudo: .*: command not found`)

	// unit file states reported by is-enabled, and in the Loaded line, that start the unit on boot
	enabledStates = []string{"enabled", "enabled-runtime", "alias", "static", "indirect", "generated", "transient"}

	permissionDeniedMarkers = []string{
		"a password is required",
		"a terminal is required",
		"interactive authentication required",
		"access denied",
		"not in the sudoers file",
		"is not allowed to execute",
		"authentication is required",
		"permission denied",
	}
)

func isActive(text string) bool {
	return activeRunningRe.MatchString(text)
}

func activeState(text string) string {
	m := activeStateRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	return m[1]
}

func isEnabled(text string) bool {
	// status output: Loaded: loaded (/usr/lib/systemd/system/nginx.service; enabled; preset: disabled)
	m := loadedRe.FindStringSubmatch(text)
	if m != nil && m[2] != "" {
		parts := strings.Split(m[2], ";")
		if len(parts) > 1 && slices.Contains(enabledStates, strings.TrimSpace(parts[1])) {
			return true
		}
	}

	// is-enabled output: a single state word per unit
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		if slices.Contains(enabledStates, strings.TrimSpace(scanner.Text())) {
			return true
		}
	}

	return false
}

func isNotFound(texts ...string) bool {
	for _, text := range texts {
		for _, re := range notFoundRes {
			if re.MatchString(text) {
				return true
			}
		}
	}

	return false
}

func isPermissionDenied(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, marker := range permissionDeniedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}

func isElevatedCommandMissing(stderr string) bool {
	return sudoNotFoundRe.MatchString(stderr)
}

func mainPID(text string) int {
	if !isActive(text) {
		return NoPID
	}

	m := mainPIDRe.FindStringSubmatch(text)
	if m == nil {
		return NoPID
	}

	pid, err := strconv.Atoi(m[1])
	if err != nil || pid <= 0 {
		return NoPID
	}

	return pid
}
