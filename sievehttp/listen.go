// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievehttp

import (
	"context"
	"net"
	"net/http"

	"go.uber.org/fx"
)

// Listen creates the net.Listener for a server.  The server's Addr is the
// address to listen on.
type Listen func(context.Context, *http.Server) (net.Listener, error)

// ListenConstructor decorates a Listen.
type ListenConstructor func(Listen) Listen

// ListenChain is an immutable sequence of ListenConstructors.  The zero value
// is an empty chain.
type ListenChain struct {
	c []ListenConstructor
}

// NewListenChain creates a chain that applies constructors in the given order.
func NewListenChain(c ...ListenConstructor) ListenChain {
	return ListenChain{
		c: append([]ListenConstructor{}, c...),
	}
}

// Append returns a new chain with more constructors at the end.
func (lc ListenChain) Append(more ...ListenConstructor) ListenChain {
	if len(more) == 0 {
		return lc
	}

	return ListenChain{
		c: append(append([]ListenConstructor{}, lc.c...), more...),
	}
}

// Then decorates next with every constructor in this chain.  The first
// constructor is the outermost.
func (lc ListenChain) Then(next Listen) Listen {
	for i := len(lc.c) - 1; i >= 0; i-- {
		next = lc.c[i](next)
	}

	return next
}

// CaptureAddr returns a ListenConstructor that sends each new listener's actual
// address to ch.  Use it to find the port when the configured address is ":0".
func CaptureAddr(ch chan<- net.Addr) ListenConstructor {
	return func(next Listen) Listen {
		return func(ctx context.Context, s *http.Server) (net.Listener, error) {
			l, err := next(ctx, s)
			if err == nil {
				ch <- l.Addr()
			}

			return l, err
		}
	}
}

// ListenerFactory is the built-in Listen strategy.
type ListenerFactory struct {
	ListenConfig net.ListenConfig

	// Network must be a TCP network.  The default is "tcp".
	Network string
}

// Listen is a Listen strategy.
func (lf ListenerFactory) Listen(ctx context.Context, s *http.Server) (net.Listener, error) {
	network := lf.Network
	if len(network) == 0 {
		network = "tcp"
	}

	return lf.ListenConfig.Listen(ctx, network, s.Addr)
}

// ServerExit is called when a server's accept loop exits.
type ServerExit func()

// ShutdownOnExit returns a ServerExit that shuts down the enclosing fx.App, so
// that a server which stops accepting takes the application with it.
func ShutdownOnExit(shutdowner fx.Shutdowner, opts ...fx.ShutdownOption) ServerExit {
	return func() {
		shutdowner.Shutdown(opts...)
	}
}

// Serve runs the server's accept loop and then calls each onExit.
func Serve(s *http.Server, l net.Listener, onExit ...ServerExit) error {
	defer func() {
		for _, f := range onExit {
			f()
		}
	}()

	return s.Serve(l)
}

// ServerOnStart returns an fx.Hook OnStart closure that listens and then starts
// the accept loop in its own goroutine.
func ServerOnStart(s *http.Server, l Listen, onExit ...ServerExit) func(context.Context) error {
	return func(ctx context.Context) error {
		listener, err := l(ctx, s)
		if err != nil {
			return err
		}

		go Serve(s, listener, onExit...)
		return nil
	}
}
