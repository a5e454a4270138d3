// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/choria-io/fisk"
	"github.com/goccy/go-yaml"

	"github.com/choria-io/svcctl/internal/procinfo"
	"github.com/choria-io/svcctl/model"
	"github.com/choria-io/svcctl/templates"
)

type statusCommand struct {
	name     string
	json     bool
	raw      bool
	process  bool
	query    string
	format   string
	template string
}

type statusOutput struct {
	model.ServiceState `yaml:",inline"`
	Process            *model.ProcessState `json:"process,omitempty" yaml:"process,omitempty"`
}

func registerStatusCommand(app *fisk.Application) {
	cmd := &statusCommand{}

	status := app.Command("status", "Get service status").Alias("info").Action(cmd.statusAction)
	status.Arg("name", "Service name to get status for").Required().StringVar(&cmd.name)
	status.Flag("json", "Output status in JSON format").UnNegatableBoolVar(&cmd.json)
	status.Flag("raw", "Output the unmodified systemctl output").UnNegatableBoolVar(&cmd.raw)
	status.Flag("process", "Include details about the main process").UnNegatableBoolVar(&cmd.process)
	status.Flag("query", "Performs a gjson query on the status").StringVar(&cmd.query)
	status.Flag("format", "Renders a {{ expression }} template using the status").StringVar(&cmd.format)
	status.Flag("template", "Renders a jet template file using the status").PlaceHolder("FILE").ExistingFileVar(&cmd.template)
}

func (c *statusCommand) statusAction(_ *fisk.ParseContext) error {
	svc, out, err := newService(c.name)
	if err != nil {
		return err
	}

	state, err := svc.Status(ctx)
	if err != nil {
		return finish(out, err)
	}

	if c.raw {
		fmt.Print(svc.Stdout())
		fmt.Fprint(os.Stderr, svc.Stderr())
		return finish(out, nil)
	}

	var process *model.ProcessState
	if c.process && state.Active {
		process, err = procinfo.Lookup(ctx, state.PID)
		if err != nil && !errors.Is(err, procinfo.ErrNoProcess) {
			return finish(out, err)
		}
	}

	env := templates.NewEnv(state, process)

	switch {
	case c.query != "":
		res, err := env.Query(c.query)
		if err != nil {
			return finish(out, err)
		}
		fmt.Println(res)

	case c.format != "":
		res, err := templates.ResolveTemplateString(c.format, env)
		if err != nil {
			return finish(out, err)
		}
		fmt.Println(res)

	case c.template != "":
		body, err := os.ReadFile(c.template)
		if err != nil {
			return finish(out, err)
		}
		res, err := templates.RenderJet(c.template, string(body), "[[", "]]", env)
		if err != nil {
			return finish(out, err)
		}
		fmt.Print(res)

	default:
		err = printStructured(c.json, statusOutput{ServiceState: *state, Process: process})
		if err != nil {
			return finish(out, err)
		}
	}

	return finish(out, nil)
}

type isEnabledCommand struct {
	name  string
	quiet bool
}

func registerIsEnabledCommand(app *fisk.Application) {
	cmd := &isEnabledCommand{}

	isEnabled := app.Command("is-enabled", "Checks if a service is enabled, exits 1 when it is not").Action(cmd.action)
	isEnabled.Arg("name", "Service name to check").Required().StringVar(&cmd.name)
	isEnabled.Flag("quiet", "Do not print the unit file state").Short('q').UnNegatableBoolVar(&cmd.quiet)
}

func (c *isEnabledCommand) action(_ *fisk.ParseContext) error {
	svc, out, err := newService(c.name)
	if err != nil {
		return err
	}

	enabled, err := svc.IsEnabled(ctx)
	err = finish(out, err)
	if err != nil {
		return err
	}

	if !c.quiet {
		switch {
		case !svc.Installed():
			fmt.Println("not-found")
		default:
			fmt.Println(firstLine(svc.Stdout()))
		}
	}

	if !enabled {
		os.Exit(1)
	}

	return nil
}

type pidCommand struct {
	name    string
	process bool
	json    bool
}

func registerPidCommand(app *fisk.Application) {
	cmd := &pidCommand{}

	pid := app.Command("pid", "Shows the main process id of a running service, exits 1 when it is not running").Action(cmd.action)
	pid.Arg("name", "Service name to inspect").Required().StringVar(&cmd.name)
	pid.Flag("process", "Show details about the process").UnNegatableBoolVar(&cmd.process)
	pid.Flag("json", "Output process details in JSON format").UnNegatableBoolVar(&cmd.json)
}

func (c *pidCommand) action(_ *fisk.ParseContext) error {
	svc, out, err := newService(c.name)
	if err != nil {
		return err
	}

	state, err := svc.Status(ctx)
	err = finish(out, err)
	if err != nil {
		return err
	}

	if state.PID <= 0 {
		out.Warn(fmt.Sprintf("%s is not running", c.name))
		os.Exit(1)
	}

	if !c.process {
		fmt.Println(state.PID)
		return nil
	}

	process, err := procinfo.Lookup(ctx, state.PID)
	if err != nil {
		return err
	}

	return printStructured(c.json, process)
}

func printStructured(asJSON bool, v any) error {
	var out []byte
	var err error

	if asJSON {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = yaml.Marshal(v)
	}
	if err != nil {
		return err
	}

	fmt.Println(string(out))

	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
