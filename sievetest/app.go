// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"
)

// Logger supplies a *zap.Logger that writes through t.  Components that log
// requests or lifecycle events use it, so failures show their output next to
// the failing assertion.
func Logger(t testing.TB) fx.Option {
	return fx.Supply(zaptest.NewLogger(t).Named("sieve"))
}

// events routes fx's own lifecycle events through a test logger.
func events(t testing.TB) fx.Option {
	return fx.WithLogger(func() fxevent.Logger {
		return &fxevent.ZapLogger{Logger: zaptest.NewLogger(t).Named("fx")}
	})
}

// NewApp creates an *fxtest.App for t.  Construction failures fail the test.
func NewApp(t testing.TB, o ...fx.Option) *fxtest.App {
	return fxtest.New(t, append(o, events(t))...)
}

// NewErrApp creates an *fx.App that is expected to fail construction, and
// asserts that it did.  The returned app can be inspected for the error.
func NewErrApp(t testing.TB, o ...fx.Option) *fx.App {
	app := fx.New(append(o, events(t))...)
	assert.Error(t, app.Err())
	return app
}
