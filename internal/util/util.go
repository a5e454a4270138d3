// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"errors"
	"os"
	"os/exec"
)

// ExecutableInPath finds command name in path
func ExecutableInPath(file string) (string, bool, error) {
	f, err := exec.LookPath(file)

	return f, err == nil, err
}

func FileExists(path string) bool {
	stat, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || stat == nil {
		return false
	}

	return !stat.IsDir()
}

// FirstExistingFile returns the first of paths that is an existing regular file
func FirstExistingFile(paths ...string) (string, bool) {
	for _, p := range paths {
		if p == "" {
			continue
		}

		if FileExists(p) {
			return p, true
		}
	}

	return "", false
}
