// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"context"
	"log/slog"

	"github.com/choria-io/svcctl/model"
)

var _ model.Logger = (*SlogLogger)(nil)

// SlogLogger adapts a slog logger to model.Logger
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger wraps log, a nil logger discards all messages
func NewSlogLogger(log *slog.Logger) *SlogLogger {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &SlogLogger{log: log}
}

// Enabled reports whether messages at level would be emitted
func (s *SlogLogger) Enabled(level slog.Level) bool {
	return s.log.Enabled(context.Background(), level)
}

func (s *SlogLogger) Debug(msg string, args ...any) {
	s.log.Debug(msg, args...)
}

func (s *SlogLogger) Info(msg string, args ...any) {
	s.log.Info(msg, args...)
}

func (s *SlogLogger) Warn(msg string, args ...any) {
	s.log.Warn(msg, args...)
}

func (s *SlogLogger) Error(msg string, args ...any) {
	s.log.Error(msg, args...)
}

func (s *SlogLogger) With(args ...any) model.Logger {
	return NewSlogLogger(s.log.With(args...))
}
