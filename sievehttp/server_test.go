// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievehttp_test

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/suite"
	"github.com/xmidt-org/sieve/sievehttp"
	"github.com/xmidt-org/sieve/sievetest"
	"go.uber.org/fx"
)

type ServerSuite struct {
	suite.Suite
}

func (suite *ServerSuite) TestNewServer() {
	sc := sievehttp.ServerConfig{
		Address: ":3030",
		Header:  http.Header{"X-Service": {"sieve"}},
	}

	s := sc.NewServer(http.NotFoundHandler())
	suite.Equal(":3030", s.Addr)
	suite.Require().NotNil(s.Handler)

	response := httptest.NewRecorder()
	s.Handler.ServeHTTP(response, httptest.NewRequest(http.MethodGet, "/", nil))
	suite.Equal(http.StatusNotFound, response.Code)
	suite.Equal("sieve", response.Header().Get("X-Service"))
}

func (suite *ServerSuite) TestProvide() {
	app, url := sievetest.StartServer(
		suite.T(),
		http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			response.Write([]byte(request.URL.EscapedPath()))
		}),
	)

	defer app.RequireStop()

	response, err := http.Get(url + "//math//sum/1/2")
	suite.Require().NoError(err)
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	suite.Require().NoError(err)
	suite.Equal(http.StatusOK, response.StatusCode)
	suite.Equal("//math//sum/1/2", string(body))
	suite.NotEmpty(response.Header.Get(sievehttp.RequestIDHeader))
}

func (suite *ServerSuite) TestStopCancelsRequests() {
	var (
		hijacked = make(chan struct{})
		released = make(chan struct{})
	)

	app, url := sievetest.StartServer(
		suite.T(),
		http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			defer close(released)
			conn, _, err := response.(http.Hijacker).Hijack()
			if err != nil {
				close(hijacked)
				return
			}

			defer conn.Close()
			close(hijacked)
			<-request.Context().Done()
		}),
	)

	conn, err := net.Dial("tcp", strings.TrimPrefix(url, "http://"))
	suite.Require().NoError(err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET /relay HTTP/1.1\r\nHost: sieve\r\n\r\n"))
	suite.Require().NoError(err)

	select {
	case <-hijacked:
	case <-time.After(5 * time.Second):
		suite.FailNow("the request was never handled")
	}

	app.RequireStop()
	select {
	case <-released:
	case <-time.After(5 * time.Second):
		suite.Fail("the request context was not canceled when the server stopped")
	}
}

func (suite *ServerSuite) TestProvideOptionError() {
	sievetest.NewErrApp(
		suite.T(),
		fx.Supply(sievehttp.ServerConfig{}),
		sievehttp.Provide(
			sievehttp.ListenChain{},
			func(*http.Server) error { return errors.New("expected") },
		),
		fx.Invoke(func(*mux.Router) {}),
	)
}

func TestServer(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}
