// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievews

import (
	"context"
	"errors"
	"io"

	"github.com/gorilla/websocket"
	"github.com/xmidt-org/sieve"
	"go.uber.org/zap"
)

// Conn is the subset of *websocket.Conn a relay uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

type message struct {
	kind int
	data []byte
}

// isNormalClose tests if err is how a peer ordinarily ends a connection.
func isNormalClose(err error) bool {
	return errors.Is(err, io.EOF) || websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}

// Relay sends every message read from conn back out on conn, in order, until
// the peer closes the connection, a read or write fails, or ctx is canceled.
// A reader goroutine feeds the writing side through a channel.
//
// The connection is always closed when this function returns.  The returned
// error is nil for a normal close.
func Relay(ctx context.Context, conn Conn) error {
	var (
		inbound = make(chan message)
		readErr = make(chan error, 1)
		done    = make(chan struct{})
	)

	defer conn.Close()
	defer close(done)

	go func() {
		defer close(inbound)
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}

			select {
			case inbound <- message{kind: kind, data: data}:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case m, ok := <-inbound:
			if !ok {
				if err := <-readErr; !isNormalClose(err) {
					return err
				}

				return nil
			}

			if err := conn.WriteMessage(m.kind, m.data); err != nil {
				return err
			}
		}
	}
}

// Echo returns a handler, suitable for Map, that relays each upgraded connection
// back to itself.  Faults are logged against the connection's ID and end only
// that connection.
func Echo(logger *zap.Logger) func(*Handshake) sieve.Reply {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(h *Handshake) sieve.Reply {
		return h.OnUpgrade(func(ctx context.Context, conn *websocket.Conn) {
			l := logger.With(zap.Stringer("connection", h.ID))
			l.Debug("websocket connected")

			if err := Relay(ctx, conn); err != nil && !errors.Is(err, context.Canceled) {
				l.Warn("websocket relay failed", zap.Error(err))
				return
			}

			l.Debug("websocket closed")
		})
	}
}
