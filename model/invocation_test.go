// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model_test

import (
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/mock/gomock"

	"github.com/choria-io/svcctl/model"
	"github.com/choria-io/svcctl/model/modelmocks"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("InvocationEvent", func() {
	var (
		ctrl   *gomock.Controller
		logger *modelmocks.MockLogger
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		logger = modelmocks.NewMockLogger(ctrl)
	})

	Describe("NewInvocationEvent", func() {
		It("Should create a valid event", func() {
			event := model.NewInvocationEvent("nginx", "start")
			Expect(event.Protocol).To(Equal(model.InvocationEventProtocol))
			Expect(event.Service).To(Equal("nginx"))
			Expect(event.Verb).To(Equal("start"))
			Expect(event.ExitCode).To(Equal(-1))
			Expect(event.TimeStamp).To(BeTemporally("~", time.Now().UTC(), time.Second))

			_, err := ksuid.Parse(event.EventID)
			Expect(err).ToNot(HaveOccurred())
		})
	})

	Describe("CommandLine", func() {
		It("Should join the command and arguments", func() {
			event := model.NewInvocationEvent("nginx", "start")
			event.Command = "sudo"
			event.Args = []string{"-n", "systemctl", "start", "nginx"}
			Expect(event.CommandLine()).To(Equal("sudo -n systemctl start nginx"))
		})
	})

	Describe("LogStatus", func() {
		It("Should log successful invocations at info", func() {
			event := model.NewInvocationEvent("nginx", "start")
			event.Condition = model.ConditionOK
			event.ExitCode = 0

			logger.EXPECT().Info("start nginx", gomock.Any()).Times(1)
			event.LogStatus(logger)
		})

		It("Should warn about services that are not installed", func() {
			event := model.NewInvocationEvent("db4e", "status")
			event.Condition = model.ConditionNotInstalled
			event.ExitCode = 4

			logger.EXPECT().Warn("status db4e: service is not installed", gomock.Any()).Times(1)
			event.LogStatus(logger)
		})

		It("Should log failures at error", func() {
			event := model.NewInvocationEvent("nginx", "start")
			event.Condition = model.ConditionPermissionDenied
			event.ExitCode = 1
			event.Error = "sudo: a password is required"

			logger.EXPECT().Error("start nginx failed", gomock.Any()).Times(1)
			event.LogStatus(logger)
		})
	})
})
