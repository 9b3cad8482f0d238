// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieve

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Route is the per-request state that filters consume.  A Route wraps an
// immutable *http.Request together with the position of the next unconsumed
// path segment and a lazily buffered request body.
//
// A Route is only ever used by a single dispatch and is not safe for
// concurrent use.
type Route struct {
	request  *http.Request
	segments []string
	index    int
	body     *body
}

// NewRoute creates the Route for a request.  The request's escaped path is split
// into segments, ignoring empty segments, and each segment is unescaped.
func NewRoute(request *http.Request) *Route {
	return &Route{
		request:  request,
		segments: splitPath(request.URL.EscapedPath()),
		body:     &body{source: request.Body},
	}
}

func splitPath(p string) (segments []string) {
	for _, s := range strings.Split(p, "/") {
		if len(s) == 0 {
			continue
		}

		if unescaped, err := url.PathUnescape(s); err == nil {
			s = unescaped
		}

		segments = append(segments, s)
	}

	return
}

// Request returns the underlying HTTP request.
func (r *Route) Request() *http.Request {
	return r.request
}

// Context returns the request's context, which is canceled when the client goes away.
func (r *Route) Context() context.Context {
	return r.request.Context()
}

// Method returns the request method.
func (r *Route) Method() string {
	return r.request.Method
}

// Peek returns the next unconsumed segment without consuming it.
func (r *Route) Peek() (string, bool) {
	if r.index < len(r.segments) {
		return r.segments[r.index], true
	}

	return "", false
}

// Next consumes and returns the next path segment.
func (r *Route) Next() (string, bool) {
	s, ok := r.Peek()
	if ok {
		r.index++
	}

	return s, ok
}

// Remaining returns the unconsumed path segments.  The returned slice must
// not be modified.
func (r *Route) Remaining() []string {
	return r.segments[r.index:]
}

// mark returns the current consumption position.
func (r *Route) mark() int {
	return r.index
}

// reset rewinds consumption to a position obtained from mark.
func (r *Route) reset(m int) {
	r.index = m
}

// Header returns the first value of the named header along with whether
// the header was present.  Names are case-insensitive.  The Host header,
// which net/http moves out of the header map, is read from the request.
func (r *Route) Header(name string) (string, bool) {
	if http.CanonicalHeaderKey(name) == "Host" {
		return r.request.Host, len(r.request.Host) > 0
	}

	values := r.request.Header.Values(name)
	if len(values) == 0 {
		return "", false
	}

	return values[0], true
}

// RawQuery returns the request's encoded query string, without the '?'.
func (r *Route) RawQuery() string {
	return r.request.URL.RawQuery
}

// Body returns the request body, reading at most limit bytes.  If the
// request declares a Content-Length over limit, or more than limit bytes
// are actually sent, the returned error is a PayloadTooLarge rejection.
//
// The body is buffered, so several filters, possibly with different limits,
// can read it during the same dispatch.
func (r *Route) Body(limit int64) ([]byte, error) {
	if cl := r.request.ContentLength; cl > limit {
		return nil, PayloadTooLarge(cl, limit)
	}

	return r.body.read(limit)
}

// body buffers a request body incrementally.  Only as many bytes as the
// largest requested limit (plus one, to detect overflow) are ever read.
type body struct {
	source io.Reader
	buf    []byte
	eof    bool
	err    error
}

func (b *body) read(limit int64) ([]byte, error) {
	if !b.eof && b.err == nil && int64(len(b.buf)) <= limit && b.source != nil {
		more, err := io.ReadAll(
			io.LimitReader(b.source, limit+1-int64(len(b.buf))),
		)

		b.buf = append(b.buf, more...)
		switch {
		case err != nil:
			b.err = err
		case int64(len(b.buf)) <= limit:
			// the limit reader stopped short, so the source is drained
			b.eof = true
		}
	}

	switch {
	case int64(len(b.buf)) > limit:
		return nil, PayloadTooLarge(int64(len(b.buf)), limit)

	case b.err != nil:
		return nil, InvalidParameter("unable to read body: %s", b.err)

	default:
		return b.buf, nil
	}
}
