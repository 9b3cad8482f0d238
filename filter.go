// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieve

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"
)

// kind tags the variant of a Filter node.
type kind uint8

const (
	leafKind kind = iota
	andKind
	orKind
	mapKind
	methodsKind
)

// extractFunc is the strategy a leaf uses to pull values out of a Route.
type extractFunc func(*Route) ([]interface{}, error)

// Filter is an immutable node in a route tree.  Leaves wrap a single extractor,
// while interior nodes combine other filters with And, Or, Map, or Methods.
// A Filter carries the static list of types it extracts, so trees are checked
// for consistency as they are built rather than on each request.
//
// Filters hold no mutable state and may be shared by any number of concurrent
// dispatches.  Shared resources, such as a store, belong in the closures passed
// to Map.
type Filter struct {
	kind  kind
	name  string
	types []reflect.Type

	extract     extractFunc
	left, right *Filter
	call        callFunc
	methods     map[string]*Filter
}

func newLeaf(name string, fn extractFunc, types ...reflect.Type) *Filter {
	return &Filter{
		kind:    leafKind,
		name:    name,
		types:   types,
		extract: fn,
	}
}

// Types returns the types of the values this filter extracts, in order.
func (f *Filter) Types() []reflect.Type {
	return append([]reflect.Type{}, f.types...)
}

// String returns a readable rendering of the filter tree.
func (f *Filter) String() string {
	switch f.kind {
	case andKind:
		return f.left.String() + ".and(" + f.right.String() + ")"

	case orKind:
		return f.left.String() + ".or(" + f.right.String() + ")"

	case mapKind:
		return f.left.String() + ".map(" + f.name + ")"

	case methodsKind:
		var o strings.Builder
		o.WriteString("methods(")
		for i, m := range f.methodNames() {
			if i > 0 {
				o.WriteString(", ")
			}

			o.WriteString(m)
			o.WriteString(": ")
			o.WriteString(f.methods[m].String())
		}

		o.WriteString(")")
		return o.String()

	default:
		return f.name
	}
}

func (f *Filter) methodNames() []string {
	names := make([]string, 0, len(f.methods))
	for m := range f.methods {
		names = append(names, m)
	}

	sort.Strings(names)
	return names
}

// Apply evaluates this filter against a route.  On success, the flattened extracted
// values are returned in extraction order.  On failure, the returned error is a
// *Rejection.
func (f *Filter) Apply(r *Route) ([]interface{}, error) {
	switch f.kind {
	case andKind:
		left, err := f.left.Apply(r)
		if err != nil {
			return nil, err
		}

		right, err := f.right.Apply(r)
		if err != nil {
			return nil, err
		}

		return append(left[:len(left):len(left)], right...), nil

	case orKind:
		m := r.mark()
		values, firstErr := f.left.Apply(r)
		if firstErr == nil {
			return values, nil
		}

		// the second alternative never sees what the first consumed
		r.reset(m)
		values, secondErr := f.right.Apply(r)
		if secondErr == nil {
			return values, nil
		}

		return nil, Combine(firstErr, secondErr)

	case mapKind:
		values, err := f.left.Apply(r)
		if err != nil {
			return nil, err
		}

		result, err := f.call(r.Context(), values)
		if err != nil {
			return nil, AsRejection(err)
		}

		return []interface{}{result}, nil

	case methodsKind:
		branch, ok := f.methods[r.Method()]
		if !ok {
			return nil, MethodNotAllowed(r.Method())
		}

		return branch.Apply(r)

	default:
		values, err := f.extract(r)
		if err != nil {
			return nil, AsRejection(err)
		}

		return values, nil
	}
}

// And returns a filter that runs f and then next against whatever f left
// unconsumed.  If f rejects, next never runs.  The extracted values are the
// concatenation of both filters' values, so grouping never produces nested
// results:  a.And(b).And(c) and a.And(b.And(c)) extract the same values.
func (f *Filter) And(next *Filter) *Filter {
	return &Filter{
		kind:  andKind,
		types: append(f.Types(), next.types...),
		left:  f,
		right: next,
	}
}

// Or returns a filter that tries f and, only if f rejects, tries alt against the
// original, unconsumed route.  If both reject, the more specific rejection is
// reported.  See Combine.
//
// Both filters must extract the same types.  This function panics if they don't,
// since that is a mistake in how the route tree was assembled.
func (f *Filter) Or(alt *Filter) *Filter {
	if !sameTypes(f.types, alt.types) {
		panic(fmt.Errorf(
			"sieve: cannot combine %s with %s: extracted types %v and %v differ",
			f, alt, f.types, alt.types,
		))
	}

	return &Filter{
		kind:  orKind,
		types: f.Types(),
		left:  f,
		right: alt,
	}
}

// Map terminates a filter with a function.  The function's parameters must be an
// optional context.Context followed by exactly the types f extracts.  It must
// return either a single value or a value and an error.  The returned filter
// extracts that one value.
//
// Any error returned by the function becomes a rejection:  a *Rejection is kept
// as is, while other errors become Unhandled.
//
// This function panics if fn does not have an acceptable signature.
func (f *Filter) Map(fn interface{}) *Filter {
	call, out, err := newCall(f.types, fn)
	if err != nil {
		panic(fmt.Errorf("sieve: cannot map %s: %w", f, err))
	}

	return &Filter{
		kind:  mapKind,
		name:  reflect.TypeOf(fn).String(),
		types: []reflect.Type{out},
		left:  f,
		call:  call,
	}
}

// Methods returns a filter that selects a branch by request method.  A method
// without a branch produces a MethodNotAllowed rejection; otherwise the branch's
// own result is returned.  Unlike an Or of method filters, a branch that rejects
// with NotFound is not overshadowed by the MethodNotAllowed of its siblings.
//
// All branches must extract the same types, and there must be at least one branch.
// This function panics otherwise.
func Methods(routes map[string]*Filter) *Filter {
	if len(routes) == 0 {
		panic("sieve: at least one method is required")
	}

	f := &Filter{
		kind:    methodsKind,
		methods: make(map[string]*Filter, len(routes)),
	}

	for m, branch := range routes {
		f.methods[strings.ToUpper(m)] = branch
	}

	for i, m := range f.methodNames() {
		branch := f.methods[m]
		if i == 0 {
			f.types = branch.Types()
		} else if !sameTypes(f.types, branch.types) {
			panic(fmt.Errorf(
				"sieve: method %s extracts %v, expected %v",
				m, branch.types, f.types,
			))
		}
	}

	return f
}

// All folds filters together with And.  All() with no filters is Any().
func All(filters ...*Filter) *Filter {
	if len(filters) == 0 {
		return Any()
	}

	f := filters[0]
	for _, next := range filters[1:] {
		f = f.And(next)
	}

	return f
}

// First folds filters together with Or, preserving order.  There must be at
// least one filter.
func First(filters ...*Filter) *Filter {
	if len(filters) == 0 {
		panic("sieve: at least one filter is required")
	}

	f := filters[0]
	for _, alt := range filters[1:] {
		f = f.Or(alt)
	}

	return f
}

func sameTypes(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// Method returns a filter that passes only when the request has the given method.
// Any other method is rejected with MethodNotAllowed.
func Method(method string) *Filter {
	method = strings.ToUpper(method)
	return newLeaf(
		strings.ToLower(method)+"()",
		func(r *Route) ([]interface{}, error) {
			if r.Method() != method {
				return nil, MethodNotAllowed(r.Method())
			}

			return nil, nil
		},
	)
}

// Get is Method(http.MethodGet).
func Get() *Filter { return Method(http.MethodGet) }

// Post is Method(http.MethodPost).
func Post() *Filter { return Method(http.MethodPost) }

// Put is Method(http.MethodPut).
func Put() *Filter { return Method(http.MethodPut) }

// Delete is Method(http.MethodDelete).
func Delete() *Filter { return Method(http.MethodDelete) }

// Any returns a filter that always passes and extracts nothing.
func Any() *Filter {
	return newLeaf(
		"any()",
		func(*Route) ([]interface{}, error) {
			return nil, nil
		},
	)
}

// Extract creates a leaf filter from a function that produces a single value.
func Extract[T any](fn func(*Route) (T, error)) *Filter {
	t := typeOf[T]()
	return newLeaf(
		"extract["+t.String()+"]",
		func(r *Route) ([]interface{}, error) {
			v, err := fn(r)
			if err != nil {
				return nil, err
			}

			return []interface{}{v}, nil
		},
		t,
	)
}

// Check creates a leaf filter that extracts nothing and passes when fn returns nil.
func Check(fn func(*Route) error) *Filter {
	return newLeaf(
		"check()",
		func(r *Route) ([]interface{}, error) {
			return nil, fn(r)
		},
	)
}

// Guard returns a filter that validates the single value f extracts.  If check
// returns an error, typically a Custom rejection, that error rejects the request.
// Otherwise the value passes through unchanged.
func Guard[T any](f *Filter, check func(T) error) *Filter {
	return f.Map(func(v T) (T, error) {
		return v, check(v)
	})
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// callFunc is the compiled form of a function passed to Map.
type callFunc func(context.Context, []interface{}) (interface{}, error)
