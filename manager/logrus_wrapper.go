// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/choria-io/svcctl/model"
)

var _ model.Logger = (*LogrusLogger)(nil)

// LogrusLogger adapts a logrus entry to model.Logger, used for JSON logging
type LogrusLogger struct {
	log *logrus.Entry
}

// NewLogrusLogger wraps log
func NewLogrusLogger(log *logrus.Entry) *LogrusLogger {
	return &LogrusLogger{log: log}
}

// logrusFields converts slog style key-value pairs, a trailing key without value is kept under !BADKEY
func logrusFields(args ...any) logrus.Fields {
	fields := logrus.Fields{}

	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fields["!BADKEY"] = args[i]
			break
		}

		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}

		fields[key] = args[i+1]
	}

	return fields
}

func (s *LogrusLogger) Debug(msg string, args ...any) {
	s.log.WithFields(logrusFields(args...)).Debug(msg)
}

func (s *LogrusLogger) Info(msg string, args ...any) {
	s.log.WithFields(logrusFields(args...)).Info(msg)
}

func (s *LogrusLogger) Warn(msg string, args ...any) {
	s.log.WithFields(logrusFields(args...)).Warn(msg)
}

func (s *LogrusLogger) Error(msg string, args ...any) {
	s.log.WithFields(logrusFields(args...)).Error(msg)
}

func (s *LogrusLogger) With(args ...any) model.Logger {
	return NewLogrusLogger(s.log.WithFields(logrusFields(args...)))
}
