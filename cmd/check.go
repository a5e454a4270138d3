// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/choria-io/fisk"

	"github.com/choria-io/svcctl/healthcheck"
	"github.com/choria-io/svcctl/healthcheck/goss"
	"github.com/choria-io/svcctl/model"
)

type checkCommand struct {
	name       string
	expression string
	gossFile   string
	json       bool
}

func registerCheckCommand(app *fisk.Application) {
	cmd := &checkCommand{}

	check := app.Command("check", "Checks the state of a service and reports using Nagios exit codes").Action(cmd.action)
	check.Arg("name", "Service name to check").Required().StringVar(&cmd.name)
	check.Flag("expr", "Expression the service state must satisfy").Default(healthcheck.DefaultExpression).StringVar(&cmd.expression)
	check.Flag("goss", "Additional goss rules to validate, may reference the service state using {{ expression }}").PlaceHolder("FILE").ExistingFileVar(&cmd.gossFile)
	check.Flag("json", "Output the result in JSON format").UnNegatableBoolVar(&cmd.json)
}

func (c *checkCommand) action(_ *fisk.ParseContext) error {
	mgr, out, err := newManager()
	if err != nil {
		return err
	}

	svc, err := mgr.Service(c.name)
	if err != nil {
		return err
	}

	log, err := mgr.Logger("component", "healthcheck")
	if err != nil {
		return err
	}

	result, env, err := healthcheck.Check(ctx, svc, c.expression, log)
	err = finish(out, err)
	if err != nil {
		return err
	}

	if c.gossFile != "" && result.Status == model.HealthCheckOK {
		rules, err := os.ReadFile(c.gossFile)
		if err != nil {
			return err
		}

		gossResult, err := goss.Execute(ctx, rules, env, out, log)
		err = finish(out, err)
		if err != nil {
			return err
		}

		result = healthcheck.Worst(result, gossResult)
	}

	if c.json {
		err = printStructured(true, result)
		if err != nil {
			return err
		}
	} else {
		fmt.Println(result.String())
	}

	os.Exit(result.Status.ExitCode())

	return nil
}
