// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievehttp

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/xmidt-org/httpaux"
	httpserver "github.com/xmidt-org/httpaux/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ServerConfig is the unmarshaled configuration for the http.Server.
type ServerConfig struct {
	// Network is the tcp network to listen on.  The default is "tcp".
	Network string

	// Address is the bind address.  If unset, the server binds to any
	// available port.
	Address string

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// KeepAlive corresponds to net.ListenConfig.KeepAlive.
	KeepAlive time.Duration

	// Header supplies HTTP headers written on every response.
	Header http.Header
}

// NewServer creates an http.Server for a handler.  The configured headers
// are added to every response.
func (sc ServerConfig) NewServer(h http.Handler) *http.Server {
	return &http.Server{
		Addr:              sc.Address,
		Handler:           httpserver.Header(httpaux.NewHeader(sc.Header).SetTo)(h),
		ReadTimeout:       sc.ReadTimeout,
		ReadHeaderTimeout: sc.ReadHeaderTimeout,
		WriteTimeout:      sc.WriteTimeout,
		IdleTimeout:       sc.IdleTimeout,
		MaxHeaderBytes:    sc.MaxHeaderBytes,
	}
}

// Listen is the Listen strategy driven by this configuration.
func (sc ServerConfig) Listen(ctx context.Context, s *http.Server) (net.Listener, error) {
	return ListenerFactory{
		ListenConfig: net.ListenConfig{
			KeepAlive: sc.KeepAlive,
		},
		Network: sc.Network,
	}.Listen(ctx, s)
}

// ServerIn is the set of dependencies for the server created by Provide.
type ServerIn struct {
	fx.In

	// Config is the required server configuration.
	Config ServerConfig

	// Logger is used for access logs and server errors.  If unset, nothing is logged.
	Logger *zap.Logger `optional:"true"`

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
}

// Provide creates the application's *mux.Router component and binds an http.Server
// serving it to the fx.App lifecycle.  Every request passes through RequestID and
// AccessLog before reaching a route.  Mount a Dispatcher with Mount.
//
// The listen chain decorates the server's listener, for example with CaptureAddr.
// Request contexts are canceled when the server stops, which ends any websocket
// relays still running.
func Provide(lc ListenChain, opts ...ServerOption) fx.Option {
	return fx.Provide(
		func(in ServerIn) (*mux.Router, error) {
			logger := in.Logger
			if logger == nil {
				logger = zap.NewNop()
			}

			// paths are left as sent, since the filter tree does its own splitting
			router := mux.NewRouter().SkipClean(true)
			router.Use(
				alice.New(
					RequestID(RequestIDHeader),
					AccessLog(logger),
				).Then,
			)

			var (
				server      = in.Config.NewServer(router)
				base, abort = context.WithCancel(context.Background())
			)

			err := applyServerOptions(
				server,
				append([]ServerOption{ErrorLog(logger), BaseContext(base)}, opts...)...,
			)

			if err != nil {
				abort()
				return nil, err
			}

			in.Lifecycle.Append(fx.Hook{
				OnStart: ServerOnStart(
					server,
					lc.Then(in.Config.Listen),
					ShutdownOnExit(in.Shutdowner),
				),
				OnStop: func(ctx context.Context) error {
					defer abort()
					return server.Shutdown(ctx)
				},
			})

			return router, nil
		},
	)
}

// Mount routes every request that no other route on the router matches to h,
// which is normally a *sieve.Dispatcher.
func Mount(router *mux.Router, h http.Handler) {
	router.PathPrefix("/").Handler(h)
}
