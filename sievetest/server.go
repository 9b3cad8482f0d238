// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievetest

import (
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/xmidt-org/sieve/sievehttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// ListenReceive waits up to timeout for the first address sent to ch,
// typically by sievehttp.CaptureAddr.
func ListenReceive(ch <-chan net.Addr, timeout time.Duration) (net.Addr, bool) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case a := <-ch:
		return a, true
	case <-t.C:
		return nil, false
	}
}

// StartServer starts an app whose sievehttp server listens on a free loopback
// port with h mounted on its router.  Access logs go to t.  It returns the
// started app, which the caller stops, and the server's base URL.
func StartServer(t testing.TB, h http.Handler, o ...fx.Option) (*fxtest.App, string) {
	ch := make(chan net.Addr, 1)
	app := NewApp(
		t,
		append(
			o,
			Logger(t),
			fx.Supply(sievehttp.ServerConfig{Address: "127.0.0.1:0"}),
			sievehttp.Provide(sievehttp.NewListenChain(sievehttp.CaptureAddr(ch))),
			fx.Invoke(func(r *mux.Router) {
				sievehttp.Mount(r, h)
			}),
		)...,
	)

	app.RequireStart()
	addr, ok := ListenReceive(ch, 5*time.Second)
	require.True(t, ok, "the server did not start listening")

	return app, "http://" + addr.String()
}

// ReadJSON reads and closes a response body, asserting that it is JSON.
func ReadJSON(t testing.TB, response *http.Response) gjson.Result {
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.True(t, gjson.ValidBytes(body), "invalid JSON: %s", body)

	return gjson.ParseBytes(body)
}
