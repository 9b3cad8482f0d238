// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievews

import (
	"context"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"
	"github.com/xmidt-org/sieve"
)

// Config is the unmarshaled configuration for websocket upgrades.
type Config struct {
	// HandshakeTimeout corresponds to websocket.Upgrader.HandshakeTimeout.
	HandshakeTimeout time.Duration

	// ReadBufferSize corresponds to websocket.Upgrader.ReadBufferSize.
	ReadBufferSize int

	// WriteBufferSize corresponds to websocket.Upgrader.WriteBufferSize.
	WriteBufferSize int

	// AllowAnyOrigin disables the same-origin check on upgrade requests.
	AllowAnyOrigin bool
}

// NewUpgrader creates the websocket.Upgrader described by this configuration.
func (c Config) NewUpgrader() *websocket.Upgrader {
	u := &websocket.Upgrader{
		HandshakeTimeout: c.HandshakeTimeout,
		ReadBufferSize:   c.ReadBufferSize,
		WriteBufferSize:  c.WriteBufferSize,
	}

	if c.AllowAnyOrigin {
		u.CheckOrigin = func(*http.Request) bool { return true }
	}

	return u
}

// Handshake is a pending websocket upgrade.  Each Handshake has its own ID,
// which identifies the resulting connection in logs.
type Handshake struct {
	ID uuid.UUID

	upgrader *websocket.Upgrader
}

// Upgrade returns a filter that extracts a *Handshake from a websocket upgrade
// request.  Any other request is rejected with InvalidParameter.  A nil upgrader
// uses the websocket package defaults.
func Upgrade(upgrader *websocket.Upgrader) *sieve.Filter {
	if upgrader == nil {
		upgrader = new(websocket.Upgrader)
	}

	return sieve.Extract(func(r *sieve.Route) (*Handshake, error) {
		if !websocket.IsWebSocketUpgrade(r.Request()) {
			return nil, sieve.InvalidParameter("not a websocket upgrade request")
		}

		id, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}

		return &Handshake{
			ID:       id,
			upgrader: upgrader,
		}, nil
	})
}

// OnUpgrade returns the Reply that completes the handshake and then runs fn with
// the new connection.  fn runs for the lifetime of the connection, and its context
// is canceled if the server abandons the request.  If the upgrade fails, the
// upgrader has already written an error response and fn is never called.
func (h *Handshake) OnUpgrade(fn func(context.Context, *websocket.Conn)) sieve.Reply {
	return sieve.ReplyFunc(func(response http.ResponseWriter, request *http.Request) {
		conn, err := h.upgrader.Upgrade(response, request, nil)
		if err != nil {
			return
		}

		fn(request.Context(), conn)
	})
}
