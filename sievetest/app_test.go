// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievetest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func TestNewApp(t *testing.T) {
	var value int
	app := NewApp(t, fx.Supply(123), fx.Populate(&value))
	app.RequireStart()
	assert.Equal(t, 123, value)
	app.RequireStop()
}

func TestNewErrApp(t *testing.T) {
	app := NewErrApp(t, fx.Error(errors.New("expected")))
	assert.Error(t, app.Err())
}

func TestLogger(t *testing.T) {
	var logger *zap.Logger
	app := NewApp(t, Logger(t), fx.Populate(&logger))
	app.RequireStart()
	defer app.RequireStop()

	if assert.NotNil(t, logger) {
		assert.True(t, logger.Core().Enabled(zap.DebugLevel))
		logger.Info("populated from the test logger")
	}
}
