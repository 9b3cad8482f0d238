// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package sieve builds HTTP request handlers out of small, composable filters.

Filters

A *Filter pulls zero or more typed values out of a request:  a path segment,
the query string, a header, or the body.  Filters combine in two ways:

	And  runs two filters in sequence, concatenating what they extract
	Or   tries an alternative when the first filter rejects the request

Map terminates a chain with an ordinary function whose parameters are the
extracted values, in order:

	sum := sieve.All(
		sieve.Path("sum"),
		sieve.Param[uint32](),
		sieve.Param[uint32](),
		sieve.End(),
	).Map(func(a, b uint32) string {
		return fmt.Sprintf("%d + %d = %d", a, b, a+b)
	})

Route trees are built once, checked as they are built, and shared by every request.

Rejections

A filter that doesn't match returns a *Rejection rather than failing the request outright.
When both sides of an Or reject, the more specific rejection survives.  The Dispatcher hands
that rejection to a Recovery, which maps it to a status code and a JSON error body.
*/
package sieve
