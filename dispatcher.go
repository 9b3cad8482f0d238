// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieve

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

var (
	// ErrNilFilter is returned by NewDispatcher when no filter is supplied.
	ErrNilFilter = errors.New("a route filter is required")

	// ErrNotReplyable is returned by NewDispatcher when the filter does not
	// extract exactly one Reply or string.
	ErrNotReplyable = errors.New("the route filter must extract exactly one Reply or string")
)

// DispatcherOption tailors a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRecovery sets the Recovery used to turn rejections into responses.
func WithRecovery(rc Recovery) DispatcherOption {
	return func(d *Dispatcher) {
		d.recovery = rc
	}
}

// WithLogger sets the logger for unhandled rejections and recovered panics.
// A nil logger disables logging.
func WithLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l == nil {
			l = zap.NewNop()
		}

		d.logger = l
	}
}

// Dispatcher is an http.Handler that evaluates a route tree for each request.
// A matched route's Reply is written as the response.  Otherwise, the rejection
// that survived the tree is turned into a JSON error by the Recovery.
//
// Nothing that happens inside the tree can crash the server:  panics raised by
// extractors or handlers are recovered and reported as Unhandled rejections.
type Dispatcher struct {
	filter   *Filter
	recovery Recovery
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher for a route tree.  The tree must extract
// exactly one value that is a Reply or a string.  An error is returned if it
// doesn't, since such a tree could never answer a request.
func NewDispatcher(f *Filter, opts ...DispatcherOption) (*Dispatcher, error) {
	if f == nil {
		return nil, ErrNilFilter
	}

	if len(f.types) != 1 || !replyable(f.types[0]) {
		return nil, fmt.Errorf("%w: %s extracts %v", ErrNotReplyable, f, f.types)
	}

	d := &Dispatcher{
		filter: f,
		logger: zap.NewNop(),
	}

	for _, o := range opts {
		o(d)
	}

	return d, nil
}

// Dispatch evaluates the route tree against a request and returns the Reply to
// write, which is either the matched route's or the Recovery's.
func (d *Dispatcher) Dispatch(request *http.Request) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(
				"recovered from panic during dispatch",
				zap.String("method", request.Method),
				zap.String("path", request.URL.Path),
				zap.Any("panic", r),
			)

			reply = d.recovery.Reply(Unhandled(fmt.Errorf("panic: %v", r)))
		}
	}()

	values, err := d.filter.Apply(NewRoute(request))
	if err != nil {
		rejection := AsRejection(err)
		if rejection.Cause == CauseUnhandled || rejection.Cause == CauseCustom {
			d.logger.Warn(
				"request rejected",
				zap.String("method", request.Method),
				zap.String("path", request.URL.Path),
				zap.Stringer("cause", rejection.Cause),
				zap.Error(rejection),
			)
		}

		return d.recovery.Reply(rejection)
	}

	return asReply(values[0])
}

// ServeHTTP implements http.Handler.
func (d *Dispatcher) ServeHTTP(response http.ResponseWriter, request *http.Request) {
	d.Dispatch(request).WriteReply(response, request)
}
