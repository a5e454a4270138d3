// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/choria-io/appbuilder/builder"
	"github.com/choria-io/appbuilder/commands/exec"
	"github.com/choria-io/appbuilder/commands/parent"
	"github.com/choria-io/fisk"

	iu "github.com/choria-io/svcctl/internal/util"
	"github.com/choria-io/svcctl/metrics"
)

var (
	ctx         context.Context
	debug       bool
	info        bool
	configFile  string
	timeout     time.Duration
	noSudo      bool
	logFormat   string
	metricsFile string
	Version     = "development"
)

func main() {
	app := fisk.New("svcctl", "Choria Service Control")
	app.Version(Version)
	app.Author("https://choria.io")

	app.Flag("debug", "Enable debug logging").UnNegatableBoolVar(&debug)
	app.Flag("info", "Enable info logging").UnNegatableBoolVar(&info)
	app.Flag("config", "Configuration file to use").PlaceHolder("FILE").StringVar(&configFile)
	app.Flag("timeout", "Maximum time a single systemctl invocation may take").PlaceHolder("DURATION").DurationVar(&timeout)
	app.Flag("no-sudo", "Do not use sudo for operations that change the service").UnNegatableBoolVar(&noSudo)
	app.Flag("log-format", "Log format to use").Default("text").EnumVar(&logFormat, "text", "json")
	app.Flag("metrics-file", "Writes Prometheus metrics to a node exporter textfile").PlaceHolder("FILE").StringVar(&metricsFile)

	registerServiceCommands(app)
	registerStatusCommand(app)
	registerIsEnabledCommand(app)
	registerPidCommand(app)
	registerCheckCommand(app)

	metrics.RegisterMetrics()

	ctx, _ = signal.NotifyContext(context.Background(), os.Interrupt)
	err := extendCli(app)
	if err != nil {
		log.Fatalf("Could not load CLI extensions: %s", err)
	}

	app.MustParseWithUsage(os.Args[1:])
}

func extendCli(app *fisk.Application) error {
	var userFile string
	if xdg.ConfigHome != "" {
		userFile = filepath.Join(xdg.ConfigHome, "choria", "svcctl", "cli-extension.yaml")
	}

	path, found := iu.FirstExistingFile(userFile, "/etc/choria/svcctl/cli-extension.yaml")
	if !found {
		return nil
	}

	def, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	parent.MustRegister()
	exec.MustRegister()

	ext := app.Command("plugin", "External CLI plugin commands").Alias("ext")

	return builder.MountAsCommand(ctx, ext, def, nil)
}
