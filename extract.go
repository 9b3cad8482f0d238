// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieve

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Path returns a filter that consumes one path segment equal to segment.
// The comparison is case-sensitive.  Any other segment, or no segment at all,
// is rejected with NotFound.
//
// segment must be a single, non-empty segment with no slashes.
func Path(segment string) *Filter {
	if len(segment) == 0 || strings.Contains(segment, "/") {
		panic(fmt.Errorf("sieve: invalid path segment %q", segment))
	}

	return newLeaf(
		strconv.Quote(segment),
		func(r *Route) ([]interface{}, error) {
			if s, ok := r.Peek(); ok && s == segment {
				r.Next()
				return nil, nil
			}

			return nil, NotFound()
		},
	)
}

// Segments is a shorthand for a chain of Path filters, one per element.
func Segments(segments ...string) *Filter {
	filters := make([]*Filter, len(segments))
	for i, s := range segments {
		filters[i] = Path(s)
	}

	return All(filters...)
}

// End returns a filter that passes only when no path segments remain.
func End() *Filter {
	return newLeaf(
		"end()",
		func(r *Route) ([]interface{}, error) {
			if len(r.Remaining()) > 0 {
				return nil, NotFound()
			}

			return nil, nil
		},
	)
}

// ParamFunc returns a filter that consumes one path segment and converts it with parse.
// A parse error is a NotFound rejection rather than a bad request:  a segment that
// doesn't parse simply means this isn't the route, which lets sibling routes match.
func ParamFunc[T any](parse func(string) (T, error)) *Filter {
	t := typeOf[T]()
	return newLeaf(
		"param["+t.String()+"]",
		func(r *Route) ([]interface{}, error) {
			s, ok := r.Next()
			if !ok {
				return nil, NotFound()
			}

			v, err := parse(s)
			if err != nil {
				return nil, NotFound()
			}

			return []interface{}{v}, nil
		},
		t,
	)
}

// Param is ParamFunc using ParseText.  This function panics if T is not a type
// ParseText supports.
func Param[T any]() *Filter {
	if t := typeOf[T](); !parsable(t) {
		panic(fmt.Errorf("sieve: param %s: %w", t, ErrUnsupportedType))
	}

	return ParamFunc(ParseText[T])
}

// Integer is the set of types usable with ParamMax.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// ParamMax is like Param, but segments whose value exceeds max are also treated
// as not matching.
func ParamMax[T Integer](max T) *Filter {
	return ParamFunc(func(s string) (T, error) {
		v, err := ParseText[T](s)
		if err == nil && v > max {
			err = fmt.Errorf("%v exceeds %v", v, max)
		}

		return v, err
	})
}

// Query returns a filter that decodes the whole query string into a T using
// DecodeQuery.  T is typically a struct whose optional fields are pointers.
// A value that doesn't fit its field is an InvalidParameter rejection.
func Query[T any]() *Filter {
	return Extract(func(r *Route) (v T, err error) {
		if decodeErr := DecodeQuery(r.RawQuery(), &v); decodeErr != nil {
			err = InvalidParameter("invalid query string: %s", decodeErr)
		}

		return
	})
}

// RawQuery returns a filter that extracts the encoded query string.  It never rejects.
func RawQuery() *Filter {
	return Extract(func(r *Route) (string, error) {
		return r.RawQuery(), nil
	})
}

// HeaderExact returns a filter that passes only when the named header has exactly
// the given value.  A missing or different value is a NotFound rejection:  this
// filter discriminates between routes and makes no authorization decision.  Code
// that uses it as a guard should treat the resulting 404 accordingly.
func HeaderExact(name, value string) *Filter {
	return newLeaf(
		fmt.Sprintf("header(%q == %q)", name, value),
		func(r *Route) ([]interface{}, error) {
			if v, ok := r.Header(name); ok && v == value {
				return nil, nil
			}

			return nil, NotFound()
		},
	)
}

// HeaderFunc returns a filter that converts the named header's value with parse.
// A missing header or a parse error is a NotFound rejection.
func HeaderFunc[T any](name string, parse func(string) (T, error)) *Filter {
	return Extract(func(r *Route) (v T, err error) {
		text, ok := r.Header(name)
		if !ok {
			err = NotFound()
			return
		}

		if v, err = parse(text); err != nil {
			err = NotFound()
		}

		return
	})
}

// Header is HeaderFunc using ParseText.  This function panics if T is not a type
// ParseText supports.
func Header[T any](name string) *Filter {
	if t := typeOf[T](); !parsable(t) {
		panic(fmt.Errorf("sieve: header %s: %w", t, ErrUnsupportedType))
	}

	return HeaderFunc(name, ParseText[T])
}

// Bytes returns a filter that extracts the request body as a []byte.  Bodies
// larger than limit are rejected with PayloadTooLarge.
func Bytes(limit int64) *Filter {
	return Extract(func(r *Route) ([]byte, error) {
		return r.Body(limit)
	})
}

// JSON returns a filter that decodes the request body as JSON into a T.  The size
// ceiling is enforced before any parsing:  bodies larger than limit are rejected
// with PayloadTooLarge.  A body that isn't valid JSON for T is an InvalidParameter
// rejection.
func JSON[T any](limit int64) *Filter {
	return Extract(func(r *Route) (v T, err error) {
		var data []byte
		if data, err = r.Body(limit); err != nil {
			return
		}

		if decodeErr := json.Unmarshal(data, &v); decodeErr != nil {
			err = InvalidParameter("invalid JSON body: %s", decodeErr)
		}

		return
	})
}
