// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package demo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/xmidt-org/sieve"
	"github.com/xmidt-org/sieve/internal/todos"
	"github.com/xmidt-org/sieve/sievestore"
	"go.uber.org/zap"
)

type RoutesSuite struct {
	suite.Suite

	d *sieve.Dispatcher
}

var _ suite.SetupAllSuite = (*RoutesSuite)(nil)

func (suite *RoutesSuite) SetupSuite() {
	var err error
	suite.d, err = sieve.NewDispatcher(
		sieve.First(
			todos.Routes(sievestore.NewMemory(), todos.Config{}),
			Routes(Config{}),
		),
		sieve.WithRecovery(sieve.NewRecovery(Tags())),
	)

	suite.Require().NoError(err)
}

func (suite *RoutesSuite) serveRequest(request *http.Request) *httptest.ResponseRecorder {
	response := httptest.NewRecorder()
	suite.d.ServeHTTP(response, request)
	return response
}

func (suite *RoutesSuite) serve(method, target string, header ...string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		request.Header.Set(header[i], header[i+1])
	}

	return suite.serveRequest(request)
}

func (suite *RoutesSuite) TestText() {
	testData := []struct {
		target   string
		expected string
	}{
		{"/", "Hello, World!"},
		{"/hi", "Hello, world"},
		{"/bye/sieve", "Good bye, sieve!"},
		{"/hello/from/warp", "Hello from warp"},
		{"/math", MathHelp},
		{"/math/sum/1/2", "1 + 2 = 3"},
		{"/math/sum/4294967295/1", "4294967295 + 1 = 4294967296"},
		{"/math/3/times/4", "3 times 4 = 12"},
		{"/sum/5/6", "(This route has moved to /math/sum/:u16/:u16) 5 + 6 = 11"},
		{"/2/times/7", "(This route has moved to /math/:u16/times/:u16) 2 times 7 = 14"},
		{"/sumquery?left=3&right=4", "3 + 4 = 7"},
		{"/rawquery?foo=bar&x=%20", "foo=bar&x=%20"},
		{"/sleep/0", "I waited 0 seconds!"},
	}

	for _, record := range testData {
		suite.Run(record.target, func() {
			response := suite.serve(http.MethodGet, record.target)
			suite.Equal(http.StatusOK, response.Code)
			suite.Equal(record.expected, response.Body.String())
		})
	}
}

func (suite *RoutesSuite) TestNotFound() {
	for _, target := range []string{
		"/nowhere",
		"/hi/there",
		"/math/sum/1",
		"/math/70000/times/2",
		"/math/7",
		"/sleep/6",
		"/todos/1",
	} {
		suite.Run(target, func() {
			response := suite.serve(http.MethodGet, target)
			suite.Equal(http.StatusNotFound, response.Code)
			suite.JSONEq(`{"code":404,"message":"NOT_FOUND"}`, response.Body.String())
		})
	}
}

func (suite *RoutesSuite) TestUnknownPathIsNotFoundForAnyMethod() {
	for _, method := range []string{http.MethodPatch, http.MethodHead, http.MethodOptions, http.MethodDelete} {
		suite.Run(method, func() {
			response := suite.serve(method, "/nowhere/at/all")
			suite.Equal(http.StatusNotFound, response.Code)
		})
	}
}

func (suite *RoutesSuite) TestMethodNotAllowed() {
	for _, target := range []string{"/hi", "/math/sum/1/2", "/todos"} {
		suite.Run(target, func() {
			response := suite.serve(http.MethodPatch, target)
			suite.Equal(http.StatusMethodNotAllowed, response.Code)
			suite.JSONEq(`{"code":405,"message":"METHOD_NOT_ALLOWED"}`, response.Body.String())
		})
	}
}

func (suite *RoutesSuite) TestDeleteWithoutTokenIsNotFound() {
	response := suite.serve(http.MethodDelete, "/todos/1")
	suite.Equal(http.StatusNotFound, response.Code)
}

func (suite *RoutesSuite) TestDivision() {
	response := suite.serve(http.MethodGet, "/math/7", "div-by", "2")
	suite.Equal(http.StatusOK, response.Code)
	suite.Equal("application/json", response.Header().Get("Content-Type"))
	suite.JSONEq(`{"op":"7 / 2","output":3}`, response.Body.String())

	response = suite.serve(http.MethodGet, "/math/7", "div-by", "0")
	suite.Equal(http.StatusBadRequest, response.Code)
	suite.JSONEq(`{"code":400,"message":"DIVIDE_BY_ZERO"}`, response.Body.String())
}

func (suite *RoutesSuite) TestSumQueryMissing() {
	response := suite.serve(http.MethodGet, "/sumquery?left=3")
	suite.Equal(http.StatusBadRequest, response.Code)
	suite.JSONEq(`{"code":400,"message":"left and right are both required"}`, response.Body.String())
}

func (suite *RoutesSuite) TestSleepCanceled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	response := suite.serveRequest(
		httptest.NewRequest(http.MethodGet, "/sleep/5", nil).WithContext(ctx),
	)

	suite.Equal(http.StatusInternalServerError, response.Code)
	suite.Less(time.Since(start), 5*time.Second)
}

func (suite *RoutesSuite) TestHost() {
	request := httptest.NewRequest(http.MethodGet, "/host", nil)
	request.Host = "127.0.0.1:3030"
	request.Header.Set("Accept", "*/*")

	response := suite.serveRequest(request)
	suite.Equal(http.StatusOK, response.Code)
	suite.Equal("accepting stars on 127.0.0.1:3030", response.Body.String())

	request.Header.Set("Accept", "text/plain")
	suite.Equal(http.StatusNotFound, suite.serveRequest(request).Code)

	// the default httptest host has no port
	suite.Equal(http.StatusNotFound, suite.serve(http.MethodGet, "/host", "Accept", "*/*").Code)
}

func (suite *RoutesSuite) TestEmployees() {
	request := httptest.NewRequest(http.MethodPost, "/employees/42", strings.NewReader(`{"name":"Sean","rate":1}`))
	response := suite.serveRequest(request)
	suite.Equal(http.StatusOK, response.Code)
	suite.JSONEq(`{"name":"Sean","rate":42}`, response.Body.String())

	request = httptest.NewRequest(http.MethodPost, "/employees/42", strings.NewReader(`{"name":`))
	suite.Equal(http.StatusBadRequest, suite.serveRequest(request).Code)

	request = httptest.NewRequest(http.MethodPost, "/employees/42", strings.NewReader(strings.Repeat(" ", defaultBodyLimit+1)))
	suite.Equal(http.StatusRequestEntityTooLarge, suite.serveRequest(request).Code)

	suite.Equal(http.StatusMethodNotAllowed, suite.serve(http.MethodGet, "/employees/42").Code)
}

func (suite *RoutesSuite) TestEchoRequiresUpgrade() {
	suite.Equal(http.StatusBadRequest, suite.serve(http.MethodGet, "/echo").Code)
}

func TestRoutes(t *testing.T) {
	suite.Run(t, new(RoutesSuite))
}

func TestTags(t *testing.T) {
	assert.Equal(t, map[string]int{TagDivideByZero: http.StatusBadRequest}, Tags())
}

func TestEcho(t *testing.T) {
	d, err := sieve.NewDispatcher(
		Routes(Config{Logger: zap.NewNop()}),
	)

	require.NoError(t, err)
	server := httptest.NewServer(d)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/echo", nil)
	require.NoError(t, err)
	defer conn.Close()

	for _, text := range []string{"hello", "world"} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(text)))

		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, kind)
		assert.Equal(t, text, string(data))
	}

	assert.NoError(t, conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	))
}
