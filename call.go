// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieve

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNotAFunction indicates that Map was passed something other than a function.
	ErrNotAFunction = errors.New("not a function")

	// ErrBadSignature indicates that a function passed to Map cannot accept
	// the values the filter extracts, or returns the wrong things.
	ErrBadSignature = errors.New("function signature does not match the filter")

	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// newCall compiles fn into a callFunc that accepts values of the given types.
// The returned reflect.Type is fn's first return type.
func newCall(in []reflect.Type, fn interface{}) (callFunc, reflect.Type, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, nil, fmt.Errorf("%T: %w", fn, ErrNotAFunction)
	}

	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, nil, fmt.Errorf("%s is variadic: %w", ft, ErrBadSignature)
	}

	offset := 0
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		offset = 1
	}

	if ft.NumIn()-offset != len(in) {
		return nil, nil, fmt.Errorf(
			"%s takes %d values, the filter extracts %v: %w",
			ft, ft.NumIn()-offset, in, ErrBadSignature,
		)
	}

	params := make([]reflect.Type, len(in))
	for i, t := range in {
		params[i] = ft.In(i + offset)
		if !t.AssignableTo(params[i]) {
			return nil, nil, fmt.Errorf(
				"%s parameter %d is %s, the filter extracts %s: %w",
				ft, i+offset, params[i], t, ErrBadSignature,
			)
		}
	}

	switch {
	case ft.NumOut() == 1 && ft.Out(0) != errorType:
	case ft.NumOut() == 2 && ft.Out(0) != errorType && ft.Out(1) == errorType:
	default:
		return nil, nil, fmt.Errorf(
			"%s must return a value or a value and an error: %w",
			ft, ErrBadSignature,
		)
	}

	call := func(ctx context.Context, values []interface{}) (result interface{}, err error) {
		args := make([]reflect.Value, 0, offset+len(values))
		if offset > 0 {
			args = append(args, reflect.ValueOf(&ctx).Elem())
		}

		for i, v := range values {
			if v == nil {
				args = append(args, reflect.Zero(params[i]))
			} else {
				args = append(args, reflect.ValueOf(v))
			}
		}

		results := fv.Call(args)
		if len(results) > 1 && !results[1].IsNil() {
			err = results[1].Interface().(error)
		}

		result = results[0].Interface()
		return
	}

	return call, ft.Out(0), nil
}
