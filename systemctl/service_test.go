// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package systemctl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"github.com/choria-io/svcctl/metrics"
	"github.com/choria-io/svcctl/model"
	"github.com/choria-io/svcctl/model/modelmocks"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Service", func() {
	var (
		mockctl *gomock.Controller
		logger  *modelmocks.MockLogger
		runner  *modelmocks.MockCommandRunner
		svc     *Service
		ctx     context.Context
		err     error
	)

	expectExec := func(command string, args []string, stdout string, stderr string, code int, execErr error) {
		runner.EXPECT().ExecuteWithOptions(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(func(_ context.Context, opts model.ExtendedExecOptions) ([]byte, []byte, int, error) {
			Expect(opts.Command).To(Equal(command))
			Expect(opts.Args).To(Equal(args))
			Expect(opts.Environment).To(ContainElements("SYSTEMD_COLORS=0", "SYSTEMD_PAGER="))
			return []byte(stdout), []byte(stderr), code, execErr
		})
	}

	expectStatus := func(name string, stdout string, stderr string, code int) {
		expectExec("systemctl", []string{"status", name}, stdout, stderr, code, nil)
	}

	BeforeEach(func() {
		mockctl = gomock.NewController(GinkgoT())
		logger = modelmocks.NewLogger(mockctl)
		runner = modelmocks.NewMockCommandRunner(mockctl)
		ctx = context.Background()

		svc, err = New("nginx", logger, runner, WithSudo("sudo", "-n"))
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("New", func() {
		It("Should require a name", func() {
			_, err := New("", logger, runner)
			Expect(err).To(MatchError(model.ErrServiceNameRequired))
		})

		It("Should require a runner", func() {
			_, err := New("nginx", logger, nil)
			Expect(err).To(MatchError("command runner is required"))
		})

		It("Should validate options", func() {
			_, err := New("nginx", logger, runner, WithTimeout(-1*time.Second))
			Expect(err).To(MatchError("invalid timeout -1s"))

			_, err = New("nginx", logger, runner, WithSystemctl(""))
			Expect(err).To(MatchError("systemctl command is required"))
		})

		It("Should not run any command", func() {
			Expect(svc.Name()).To(Equal("nginx"))
			Expect(svc.Installed()).To(BeFalse())
			Expect(svc.Active()).To(BeFalse())
			Expect(svc.Enabled()).To(BeFalse())
			Expect(svc.PID()).To(Equal(NoPID))
			Expect(svc.ExitCode()).To(Equal(-1))
			Expect(svc.Stdout()).To(BeEmpty())
			Expect(svc.Stderr()).To(BeEmpty())
			Expect(svc.LastInvocation()).To(BeNil())
		})
	})

	Describe("Status", func() {
		It("Should run status unprivileged with the configured options", func() {
			svc, err = New("nginx", logger, runner, WithSudo("sudo", "-n"), WithSystemctl("/usr/bin/systemctl"), WithTimeout(10*time.Second))
			Expect(err).ToNot(HaveOccurred())

			runner.EXPECT().ExecuteWithOptions(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(func(_ context.Context, opts model.ExtendedExecOptions) ([]byte, []byte, int, error) {
				Expect(opts.Command).To(Equal("/usr/bin/systemctl"))
				Expect(opts.Args).To(Equal([]string{"status", "nginx"}))
				Expect(opts.Timeout).To(Equal(10 * time.Second))
				return []byte(fixture("status-running.txt")), nil, 0, nil
			})

			state, err := svc.Status(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(state).To(Equal(&model.ServiceState{
				Name:        "nginx",
				Installed:   true,
				Active:      true,
				ActiveState: "active (running)",
				Enabled:     true,
				PID:         1204,
				Condition:   model.ConditionOK,
			}))

			inv := svc.LastInvocation()
			Expect(inv.Verb).To(Equal(VerbStatus))
			Expect(inv.Privileged).To(BeFalse())
			Expect(inv.CommandLine()).To(Equal("/usr/bin/systemctl status nginx"))
		})

		It("Should parse a running service (scenario A)", func() {
			expectStatus("nginx", "Active: active (running) since ...\nMain PID: 4821 (dbd)", "", 0)

			_, err := svc.Status(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(svc.Active()).To(BeTrue())
			Expect(svc.PID()).To(Equal(4821))
			Expect(svc.Installed()).To(BeTrue())
			Expect(svc.ExitCode()).To(Equal(0))
		})

		It("Should report missing services as data (scenario B)", func() {
			svc, err = New("db4e", logger, runner, WithSudo())
			Expect(err).ToNot(HaveOccurred())
			expectStatus("db4e", "", fixture("status-not-found-stderr.txt"), 4)

			state, err := svc.Status(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(state.Installed).To(BeFalse())
			Expect(state.Active).To(BeFalse())
			Expect(state.PID).To(Equal(NoPID))
			Expect(state.Condition).To(Equal(model.ConditionNotInstalled))

			Expect(svc.Installed()).To(BeFalse())
			Expect(svc.Active()).To(BeFalse())
			Expect(svc.PID()).To(Equal(NoPID))
			Expect(svc.ExitCode()).To(Equal(4))
			Expect(svc.Stderr()).To(Equal("Unit db4e.service could not be found.\n"))
		})

		It("Should handle newer not-found output on stdout", func() {
			expectStatus("nginx", fixture("status-loaded-not-found.txt"), "", 4)

			state, err := svc.Status(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(state.Installed).To(BeFalse())
			Expect(state.ActiveState).To(Equal("inactive (dead)"))
		})

		It("Should treat stopped services as data", func() {
			expectStatus("nginx", fixture("status-inactive.txt"), "", 3)

			state, err := svc.Status(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(state.Installed).To(BeTrue())
			Expect(state.Active).To(BeFalse())
			Expect(state.Enabled).To(BeFalse())
			Expect(state.PID).To(Equal(NoPID))
			Expect(state.Condition).To(Equal(model.ConditionOK))
			Expect(svc.ExitCode()).To(Equal(3))
		})

		It("Should not report a PID for failed services", func() {
			expectStatus("nginx", fixture("status-failed.txt"), "", 3)

			state, err := svc.Status(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(state.Installed).To(BeTrue())
			Expect(state.Active).To(BeFalse())
			Expect(state.Enabled).To(BeTrue())
			Expect(state.PID).To(Equal(NoPID))
		})

		It("Should downgrade unexpected failures to data", func() {
			expectStatus("nginx", "", "Failed to connect to bus: No medium found\n", 1)

			state, err := svc.Status(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(state.Condition).To(Equal(model.ConditionCommandFailed))
			Expect(state.Active).To(BeFalse())
			Expect(state.PID).To(Equal(NoPID))
			Expect(svc.LastInvocation().Error).To(Equal("Failed to connect to bus: No medium found"))
		})

		It("Should be idempotent", func() {
			expectStatus("nginx", fixture("status-running.txt"), "", 0)
			expectStatus("nginx", fixture("status-running.txt"), "", 0)

			first, err := svc.Status(ctx)
			Expect(err).ToNot(HaveOccurred())
			second, err := svc.Status(ctx)
			Expect(err).ToNot(HaveOccurred())

			Expect(second).To(Equal(first))
		})

		It("Should fail when systemctl is missing", func() {
			expectExec("systemctl", []string{"status", "nginx"}, "", "", -1, fmt.Errorf("%w: systemctl: exec: not found", model.ErrCommandNotFound))

			state, err := svc.Status(ctx)
			Expect(err).To(MatchError(model.ErrCommandNotFound))
			Expect(state).To(BeNil())

			var cerr *CommandError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Condition).To(Equal(model.ConditionCommandNotFound))
			Expect(svc.Stderr()).To(ContainSubstring("not found"))
		})

		It("Should fail on timeouts", func() {
			expectExec("systemctl", []string{"status", "nginx"}, "", "", -1, fmt.Errorf("%w: systemctl after 1s", model.ErrTimeout))

			_, err := svc.Status(ctx)
			Expect(err).To(MatchError(model.ErrTimeout))
			Expect(svc.Stderr()).To(Equal("command timed out: systemctl after 1s"))
			Expect(svc.LastInvocation().Condition).To(Equal(model.ConditionTimeout))
		})

		It("Should fail on other execution errors", func() {
			expectExec("systemctl", []string{"status", "nginx"}, "", "", -1, context.Canceled)

			_, err := svc.Status(ctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(err).To(MatchError(model.ErrCommandFailed))
		})
	})

	Describe("IsEnabled", func() {
		DescribeTable("unit file states",
			func(fixtureFile string, code int, expected bool) {
				expectExec("systemctl", []string{"is-enabled", "nginx"}, fixture(fixtureFile), "", code, nil)

				enabled, err := svc.IsEnabled(ctx)
				Expect(err).ToNot(HaveOccurred())
				Expect(enabled).To(Equal(expected))
				Expect(svc.Enabled()).To(Equal(expected))
			},
			Entry("enabled", "is-enabled-enabled.txt", 0, true),
			Entry("static", "is-enabled-static.txt", 0, true),
			Entry("disabled", "is-enabled-disabled.txt", 1, false),
			Entry("masked", "is-enabled-masked.txt", 1, false),
		)

		It("Should report missing units", func() {
			expectExec("systemctl", []string{"is-enabled", "nginx"}, "", fixture("is-enabled-not-found.txt"), 1, nil)

			enabled, err := svc.IsEnabled(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(enabled).To(BeFalse())
			Expect(svc.Installed()).To(BeFalse())
		})
	})

	Describe("Mutations", func() {
		DescribeTable("privileged invocation",
			func(verb string, action func(*Service, context.Context) error) {
				expectExec("sudo", []string{"-n", "systemctl", verb, "nginx"}, "", "", 0, nil)

				Expect(action(svc, ctx)).To(Succeed())

				inv := svc.LastInvocation()
				Expect(inv.Verb).To(Equal(verb))
				Expect(inv.Privileged).To(BeTrue())
				Expect(inv.Condition).To(Equal(model.ConditionOK))
				Expect(inv.ExitCode).To(Equal(0))
				Expect(svc.ExitCode()).To(Equal(0))
			},
			Entry("start", VerbStart, (*Service).Start),
			Entry("stop", VerbStop, (*Service).Stop),
			Entry("restart", VerbRestart, (*Service).Restart),
			Entry("reload", VerbReload, (*Service).Reload),
			Entry("enable", VerbEnable, (*Service).Enable),
			Entry("disable", VerbDisable, (*Service).Disable),
		)

		It("Should not elevate when sudo is disabled", func() {
			svc, err = New("nginx", logger, runner, WithSudo())
			Expect(err).ToNot(HaveOccurred())
			expectExec("systemctl", []string{"start", "nginx"}, "", "", 0, nil)

			Expect(svc.Start(ctx)).To(Succeed())
			Expect(svc.LastInvocation().Privileged).To(BeFalse())
		})

		It("Should support custom elevation commands", func() {
			svc, err = New("nginx", logger, runner, WithSudo("doas"))
			Expect(err).ToNot(HaveOccurred())
			expectExec("doas", []string{"systemctl", "stop", "nginx"}, "", "", 0, nil)

			Expect(svc.Stop(ctx)).To(Succeed())
		})

		It("Should detect failed elevation (scenario C)", func() {
			before := testutil.ToFloat64(metrics.PermissionDeniedCount.WithLabelValues(VerbStart))
			expectExec("sudo", []string{"-n", "systemctl", "start", "nginx"}, "", fixture("sudo-password-required.txt"), 1, nil)

			err := svc.Start(ctx)
			Expect(err).To(MatchError(model.ErrPermissionDenied))
			Expect(errors.Is(err, model.ErrCommandFailed)).To(BeFalse())
			Expect(err.Error()).To(Equal("systemctl start nginx: permission denied (exit code 1): sudo: a password is required"))
			Expect(svc.ExitCode()).ToNot(Equal(0))

			var cerr *CommandError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Verb).To(Equal("start"))
			Expect(cerr.Service).To(Equal("nginx"))
			Expect(cerr.ExitCode).To(Equal(1))
			Expect(cerr.Stderr).To(Equal("sudo: a password is required\n"))

			Expect(testutil.ToFloat64(metrics.PermissionDeniedCount.WithLabelValues(VerbStart))).To(Equal(before + 1))
		})

		It("Should detect polkit denials", func() {
			svc, err = New("nginx", logger, runner, WithSudo())
			Expect(err).ToNot(HaveOccurred())
			expectExec("systemctl", []string{"restart", "nginx"}, "", fixture("polkit-denied.txt"), 1, nil)

			Expect(svc.Restart(ctx)).To(MatchError(model.ErrPermissionDenied))
		})

		It("Should report generic failures with stderr", func() {
			expectExec("sudo", []string{"-n", "systemctl", "start", "nginx"}, "", fixture("start-failed.txt"), 1, nil)

			err := svc.Start(ctx)
			Expect(err).To(MatchError(model.ErrCommandFailed))
			Expect(errors.Is(err, model.ErrPermissionDenied)).To(BeFalse())
			Expect(err.Error()).To(ContainSubstring("Job for nginx.service failed"))
			Expect(svc.Stderr()).To(Equal(fixture("start-failed.txt")))
		})

		It("Should report missing units as failures", func() {
			expectExec("sudo", []string{"-n", "systemctl", "start", "nginx"}, "", fixture("start-not-found.txt"), 5, nil)

			err := svc.Start(ctx)
			Expect(err).To(MatchError(model.ErrCommandFailed))

			var cerr *CommandError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Condition).To(Equal(model.ConditionNotInstalled))
			Expect(svc.Installed()).To(BeFalse())
		})

		It("Should detect systemctl missing behind sudo", func() {
			expectExec("sudo", []string{"-n", "systemctl", "stop", "nginx"}, "", fixture("sudo-command-not-found.txt"), 1, nil)

			Expect(svc.Stop(ctx)).To(MatchError(model.ErrCommandNotFound))
		})

		It("Should detect a missing elevation command", func() {
			expectExec("sudo", []string{"-n", "systemctl", "stop", "nginx"}, "", "", -1, fmt.Errorf("%w: sudo", model.ErrCommandNotFound))

			Expect(svc.Stop(ctx)).To(MatchError(model.ErrCommandNotFound))
		})

		It("Should keep stderr of successful invocations verbatim", func() {
			expectExec("sudo", []string{"-n", "systemctl", "enable", "nginx"}, "", fixture("enable-stderr.txt"), 0, nil)

			Expect(svc.Enable(ctx)).To(Succeed())
			Expect(svc.Stderr()).To(Equal(fixture("enable-stderr.txt")))
			Expect(svc.Installed()).To(BeTrue())
		})

		It("Should reflect enable once re-queried (scenario D)", func() {
			expectExec("sudo", []string{"-n", "systemctl", "enable", "nginx"}, "", fixture("enable-stderr.txt"), 0, nil)
			expectExec("systemctl", []string{"is-enabled", "nginx"}, fixture("is-enabled-enabled.txt"), "", 0, nil)
			expectStatus("nginx", fixture("status-running.txt"), "", 0)

			Expect(svc.Enable(ctx)).To(Succeed())

			enabled, err := svc.IsEnabled(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(enabled).To(BeTrue())

			state, err := svc.Status(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(state.Enabled).To(BeTrue())
			Expect(svc.Enabled()).To(BeTrue())
		})

		It("Should only reflect the most recent invocation", func() {
			expectStatus("nginx", fixture("status-running.txt"), "", 0)
			expectExec("sudo", []string{"-n", "systemctl", "stop", "nginx"}, "", "", 0, nil)

			_, err := svc.Status(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(svc.Active()).To(BeTrue())

			Expect(svc.Stop(ctx)).To(Succeed())
			Expect(svc.Stdout()).To(BeEmpty())
			Expect(svc.Active()).To(BeFalse())
			Expect(svc.PID()).To(Equal(NoPID))
			Expect(svc.LastInvocation().Verb).To(Equal(VerbStop))
		})
	})

	Describe("Independent handles", func() {
		It("Should not share state", func() {
			other, err := New("db4e", logger, runner, WithSudo())
			Expect(err).ToNot(HaveOccurred())

			expectStatus("nginx", fixture("status-running.txt"), "", 0)
			expectStatus("db4e", "", fixture("status-not-found-stderr.txt"), 4)

			_, err = svc.Status(ctx)
			Expect(err).ToNot(HaveOccurred())
			_, err = other.Status(ctx)
			Expect(err).ToNot(HaveOccurred())

			Expect(svc.Installed()).To(BeTrue())
			Expect(svc.PID()).To(Equal(1204))
			Expect(other.Installed()).To(BeFalse())
			Expect(other.PID()).To(Equal(NoPID))
		})
	})
})
