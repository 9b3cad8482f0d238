// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieve

import (
	"errors"
	"fmt"
)

// Cause classifies a Rejection.
type Cause int

const (
	// CauseUnhandled is an unclassified failure, such as a handler error.
	CauseUnhandled Cause = iota

	// CauseNotFound means the request did not match a route.
	CauseNotFound

	// CauseMethodNotAllowed means a route matched everything but the method.
	CauseMethodNotAllowed

	// CauseInvalidParameter means some part of the request was malformed.
	CauseInvalidParameter

	// CausePayloadTooLarge means the body exceeded its configured ceiling.
	CausePayloadTooLarge

	// CauseCustom is a domain-specific rejection identified by a tag.
	CauseCustom
)

var causeNames = [...]string{
	CauseUnhandled:        "Unhandled",
	CauseNotFound:         "NotFound",
	CauseMethodNotAllowed: "MethodNotAllowed",
	CauseInvalidParameter: "InvalidParameter",
	CausePayloadTooLarge:  "PayloadTooLarge",
	CauseCustom:           "Custom",
}

func (c Cause) String() string {
	if c >= 0 && int(c) < len(causeNames) {
		return causeNames[c]
	}

	return fmt.Sprintf("Cause(%d)", int(c))
}

// rank orders causes by specificity.  Anything other than NotFound and
// MethodNotAllowed shares the top rank.
func (c Cause) rank() int {
	switch c {
	case CauseNotFound:
		return 0
	case CauseMethodNotAllowed:
		return 1
	default:
		return 2
	}
}

// Rejection is the structured, non-fatal failure produced by filters.  Rejections
// are ordinary errors and flow up through And and Or until the Dispatcher hands
// the surviving one to a Recovery.
type Rejection struct {
	// Cause is the classification of this rejection.
	Cause Cause

	// Tag identifies a Custom rejection.  It is unused by other causes.
	Tag string

	// Detail is an optional human-readable explanation.
	Detail string

	// Err is the optional underlying error, e.g. from a handler.
	Err error
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	var text string
	if len(r.Tag) > 0 {
		text = fmt.Sprintf("%s rejection [%s]", r.Cause, r.Tag)
	} else {
		text = fmt.Sprintf("%s rejection", r.Cause)
	}

	switch {
	case len(r.Detail) > 0:
		return text + ": " + r.Detail
	case r.Err != nil:
		return text + ": " + r.Err.Error()
	default:
		return text
	}
}

// Unwrap returns the underlying error, if any.
func (r *Rejection) Unwrap() error {
	return r.Err
}

// Is allows errors.Is to match rejections by cause and tag, so that callers can
// compare against sentinels such as ErrNotFound.
func (r *Rejection) Is(target error) bool {
	var t *Rejection
	if errors.As(target, &t) {
		return t.Cause == r.Cause && t.Tag == r.Tag
	}

	return false
}

var (
	// ErrNotFound is the sentinel NotFound rejection.
	ErrNotFound = &Rejection{Cause: CauseNotFound}

	// ErrMethodNotAllowed is the sentinel MethodNotAllowed rejection.
	ErrMethodNotAllowed = &Rejection{Cause: CauseMethodNotAllowed}
)

// NotFound returns a NotFound rejection.
func NotFound() *Rejection {
	return ErrNotFound
}

// MethodNotAllowed returns a MethodNotAllowed rejection naming the actual method.
func MethodNotAllowed(method string) *Rejection {
	return &Rejection{
		Cause:  CauseMethodNotAllowed,
		Detail: method,
	}
}

// InvalidParameter returns an InvalidParameter rejection with a formatted detail.
func InvalidParameter(format string, args ...interface{}) *Rejection {
	return &Rejection{
		Cause:  CauseInvalidParameter,
		Detail: fmt.Sprintf(format, args...),
	}
}

// PayloadTooLarge returns a PayloadTooLarge rejection.
func PayloadTooLarge(size, limit int64) *Rejection {
	return &Rejection{
		Cause:  CausePayloadTooLarge,
		Detail: fmt.Sprintf("body of %d bytes exceeds the limit of %d", size, limit),
	}
}

// Custom returns a domain-specific rejection identified by tag.
func Custom(tag, detail string) *Rejection {
	return &Rejection{
		Cause:  CauseCustom,
		Tag:    tag,
		Detail: detail,
	}
}

// Unhandled wraps an arbitrary error as an Unhandled rejection.
func Unhandled(err error) *Rejection {
	return &Rejection{
		Cause: CauseUnhandled,
		Err:   err,
	}
}

// AsRejection converts any error into a Rejection.  If err is, or wraps, a *Rejection
// that rejection is returned.  A nil error returns nil.  Any other error becomes
// Unhandled.
func AsRejection(err error) *Rejection {
	if err == nil {
		return nil
	}

	var r *Rejection
	if errors.As(err, &r) {
		return r
	}

	return Unhandled(err)
}

// Combine returns the more specific of two rejections.  NotFound is the least
// specific cause, followed by MethodNotAllowed.  When both rejections are equally
// specific, the first one wins.
func Combine(first, second error) *Rejection {
	a, b := AsRejection(first), AsRejection(second)
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Cause.rank() > a.Cause.rank():
		return b
	default:
		return a
	}
}
