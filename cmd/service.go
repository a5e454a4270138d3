// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/choria-io/fisk"

	"github.com/choria-io/svcctl/systemctl"
)

type serviceCommand struct {
	name string
	verb string
}

func registerServiceCommands(app *fisk.Application) {
	for _, v := range []struct {
		verb string
		help string
	}{
		{systemctl.VerbStart, "Starts a service"},
		{systemctl.VerbStop, "Stops a service"},
		{systemctl.VerbRestart, "Restarts a service"},
		{systemctl.VerbReload, "Reloads the configuration of a service"},
		{systemctl.VerbEnable, "Enables a service to start on boot"},
		{systemctl.VerbDisable, "Disables a service from starting on boot"},
	} {
		cmd := &serviceCommand{verb: v.verb}

		svc := app.Command(v.verb, v.help).Action(cmd.action)
		svc.Arg("name", "Service name to manage").Required().StringVar(&cmd.name)
	}
}

func (c *serviceCommand) action(_ *fisk.ParseContext) error {
	svc, out, err := newService(c.name)
	if err != nil {
		return err
	}

	var op func(context.Context) error

	switch c.verb {
	case systemctl.VerbStart:
		op = svc.Start
	case systemctl.VerbStop:
		op = svc.Stop
	case systemctl.VerbRestart:
		op = svc.Restart
	case systemctl.VerbReload:
		op = svc.Reload
	case systemctl.VerbEnable:
		op = svc.Enable
	case systemctl.VerbDisable:
		op = svc.Disable
	}

	err = op(ctx)

	if event := svc.LastInvocation(); event != nil {
		event.LogStatus(out)
	}

	return finish(out, err)
}
