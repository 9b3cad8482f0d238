// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievehttp

import (
	"context"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/justinas/alice"
	"github.com/xmidt-org/httpaux/observe"
	"go.uber.org/zap"
)

// RequestIDHeader is the header that carries a request's id.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestIDFrom returns the request id stored in a context by RequestID.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// RequestID returns middleware that gives each request an id.  An id sent by
// the client in the header is kept.  Otherwise a random UUID is generated.  The
// id is echoed on the response and stored in the request context.
func RequestID(header string) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			id := request.Header.Get(header)
			if len(id) == 0 {
				id = uuid.Must(uuid.NewV4()).String()
			}

			response.Header().Set(header, id)
			next.ServeHTTP(
				response,
				request.WithContext(context.WithValue(request.Context(), requestIDKey{}, id)),
			)
		})
	}
}

// AccessLog returns middleware that logs each completed request at Info level.
// A handler that writes no header of its own, such as one that hijacks the
// connection, is logged with the implicit 200.
func AccessLog(logger *zap.Logger) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			var (
				start    = time.Now()
				writer = observe.New(response)
			)

			next.ServeHTTP(writer, request)

			status := writer.StatusCode()
			if status == 0 {
				status = http.StatusOK
			}

			fields := []zap.Field{
				zap.String("method", request.Method),
				zap.String("path", request.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
			}

			if id, ok := RequestIDFrom(request.Context()); ok {
				fields = append(fields, zap.String("requestID", id))
			}

			logger.Info("request", fields...)
		})
	}
}
