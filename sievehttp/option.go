// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievehttp

import (
	"context"
	"net"
	"net/http"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ServerOption tailors the *http.Server built by Provide before it starts.
type ServerOption func(*http.Server) error

// applyServerOptions applies every option, even after one fails, and returns
// all the errors together.
func applyServerOptions(s *http.Server, opts ...ServerOption) (err error) {
	for _, o := range opts {
		err = multierr.Append(err, o(s))
	}

	return
}

// ErrorLog sends the server's own error output to a logger.
func ErrorLog(l *zap.Logger) ServerOption {
	return func(s *http.Server) error {
		s.ErrorLog = zap.NewStdLog(l.Named("http"))
		return nil
	}
}

// BaseContext roots every request context in ctx.  Canceling ctx cancels the
// context of every request in flight, including hijacked websocket connections
// that Shutdown does not track.
func BaseContext(ctx context.Context) ServerOption {
	return func(s *http.Server) error {
		s.BaseContext = func(net.Listener) context.Context {
			return ctx
		}

		return nil
	}
}
