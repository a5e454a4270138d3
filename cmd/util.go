// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/SladkyCitron/slogcolor"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/choria-io/svcctl/manager"
	"github.com/choria-io/svcctl/metrics"
	"github.com/choria-io/svcctl/model"
	"github.com/choria-io/svcctl/systemctl"
)

func newManager() (*manager.Manager, model.Logger, error) {
	cfg, err := manager.LoadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(cfg.LogLevel)
	out := newOutputLogger()

	opts := []manager.Option{manager.WithConfig(cfg)}

	if timeout > 0 {
		opts = append(opts, manager.WithTimeout(timeout))
	}

	if noSudo {
		opts = append(opts, manager.WithoutSudo())
	}

	mgr, err := manager.NewManager(logger, out, opts...)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Source() != "" {
		logger.Debug("Loaded configuration", "file", cfg.Source())
	}

	return mgr, out, nil
}

func newService(name string) (*systemctl.Service, model.Logger, error) {
	mgr, out, err := newManager()
	if err != nil {
		return nil, nil, err
	}

	svc, err := mgr.Service(name)
	if err != nil {
		return nil, nil, err
	}

	return svc, out, nil
}

func newOutputLogger() model.Logger {
	var level slog.Level

	switch {
	case debug:
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}

	if logFormat == "json" {
		return newLogrusLogger(level)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return manager.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	}

	return manager.NewSlogLogger(slog.New(slogcolor.NewHandler(os.Stdout, &slogcolor.Options{Level: level})))
}

func newLogger(configured string) model.Logger {
	var level slog.Level

	switch {
	case debug:
		level = slog.LevelDebug
	case info:
		level = slog.LevelInfo
	default:
		err := level.UnmarshalText([]byte(configured))
		if err != nil {
			level = slog.LevelWarn
		}
	}

	if logFormat == "json" {
		return newLogrusLogger(level)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return manager.NewSlogLogger(logger)
}

func newLogrusLogger(level slog.Level) model.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.JSONFormatter{})

	switch {
	case level <= slog.LevelDebug:
		log.SetLevel(logrus.DebugLevel)
	case level <= slog.LevelInfo:
		log.SetLevel(logrus.InfoLevel)
	case level <= slog.LevelWarn:
		log.SetLevel(logrus.WarnLevel)
	default:
		log.SetLevel(logrus.ErrorLevel)
	}

	return manager.NewLogrusLogger(logrus.NewEntry(log))
}

// finish writes the metrics file when requested and annotates errors with remediation hints
func finish(out model.Logger, err error) error {
	if metricsFile != "" {
		merr := metrics.WriteTextfile(metricsFile, nil)
		if merr != nil && out != nil {
			out.Error("Could not write metrics", "file", metricsFile, "error", merr)
		}
	}

	if out != nil && errors.Is(err, model.ErrPermissionDenied) {
		out.Warn("Changing services requires root or a passwordless sudo rule for systemctl, see sudoers(5) or use --no-sudo when running as root")
	}

	return err
}
