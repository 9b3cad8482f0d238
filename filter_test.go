// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/suite"
)

// routeSuite holds the helpers shared by the filter and extractor suites.
type routeSuite struct {
	suite.Suite
}

func (suite *routeSuite) route(method, target string) *Route {
	return NewRoute(httptest.NewRequest(method, target, nil))
}

// counting returns a filter that records how many times it ran.
func (suite *routeSuite) counting(count *int) *Filter {
	return Check(func(*Route) error {
		*count++
		return nil
	})
}

func (suite *routeSuite) assertRejection(expected Cause, err error) {
	var r *Rejection
	suite.Require().ErrorAs(err, &r)
	suite.Equal(expected, r.Cause)
}

type FilterSuite struct {
	routeSuite
}

func (suite *FilterSuite) TestAndFlattens() {
	var (
		a = Param[string]()
		b = Param[uint32]()
		c = Param[bool]()

		groupings = map[string]*Filter{
			"left":  a.And(b).And(c),
			"right": a.And(b.And(c)),
			"all":   All(a, b, c),
		}
	)

	for name, f := range groupings {
		suite.Run(name, func() {
			suite.Equal(
				[]reflect.Type{reflect.TypeOf(""), reflect.TypeOf(uint32(0)), reflect.TypeOf(false)},
				f.Types(),
			)

			values, err := f.Apply(suite.route(http.MethodGet, "/hello/42/true"))
			suite.Require().NoError(err)
			suite.Equal([]interface{}{"hello", uint32(42), true}, values)

			values, err = f.Apply(suite.route(http.MethodGet, "/hello/notanumber/true"))
			suite.Nil(values)
			suite.assertRejection(CauseNotFound, err)
		})
	}
}

func (suite *FilterSuite) TestAndShortCircuits() {
	var (
		count int
		f     = Path("todos").And(suite.counting(&count))
	)

	_, err := f.Apply(suite.route(http.MethodGet, "/other"))
	suite.assertRejection(CauseNotFound, err)
	suite.Zero(count)

	_, err = f.Apply(suite.route(http.MethodGet, "/todos"))
	suite.NoError(err)
	suite.Equal(1, count)
}

func (suite *FilterSuite) TestAndDiscardsFirstValues() {
	f := Param[uint32]().And(End())

	values, err := f.Apply(suite.route(http.MethodGet, "/7/extra"))
	suite.Nil(values)
	suite.assertRejection(CauseNotFound, err)
}

func (suite *FilterSuite) TestOrFirstWins() {
	var (
		count int
		f     = Path("a").Or(Path("b").And(suite.counting(&count)))
	)

	_, err := f.Apply(suite.route(http.MethodGet, "/a"))
	suite.NoError(err)
	suite.Zero(count)

	_, err = f.Apply(suite.route(http.MethodGet, "/b"))
	suite.NoError(err)
	suite.Equal(1, count)
}

func (suite *FilterSuite) TestOrSpecificity() {
	var (
		first  = Check(func(*Route) error { return NotFound() })
		second = Check(func(*Route) error { return InvalidParameter("bad") })
	)

	_, err := first.Or(second).Apply(suite.route(http.MethodGet, "/"))
	suite.assertRejection(CauseInvalidParameter, err)

	_, err = second.Or(first).Apply(suite.route(http.MethodGet, "/"))
	suite.assertRejection(CauseInvalidParameter, err)
}

func (suite *FilterSuite) TestOrDoesNotLeakConsumption() {
	var (
		// consumes two segments, then rejects
		first = Segments("math", "sum").And(Check(func(*Route) error { return NotFound() }))

		seen   []string
		second = Extract(func(r *Route) (int, error) {
			seen = append([]string{}, r.Remaining()...)
			return len(seen), nil
		})
	)

	values, err := first.And(Extract(func(*Route) (int, error) { return 0, nil })).
		Or(second).
		Apply(suite.route(http.MethodGet, "/math/sum/1/2"))

	suite.Require().NoError(err)
	suite.Equal([]interface{}{4}, values)
	suite.Equal([]string{"math", "sum", "1", "2"}, seen)
}

func (suite *FilterSuite) TestOrTypeMismatchPanics() {
	suite.Panics(func() {
		Param[uint32]().Or(Param[string]())
	})

	suite.Panics(func() {
		Path("a").Or(Param[string]())
	})
}

func (suite *FilterSuite) TestFirst() {
	f := First(Path("a"), Path("b"), Path("c"))
	for _, target := range []string{"/a", "/b", "/c"} {
		_, err := f.Apply(suite.route(http.MethodGet, target))
		suite.NoError(err, target)
	}

	_, err := f.Apply(suite.route(http.MethodGet, "/d"))
	suite.assertRejection(CauseNotFound, err)

	suite.Panics(func() { First() })
}

func (suite *FilterSuite) TestMap() {
	f := Path("sum").
		And(Param[uint32]()).
		And(Param[uint32]()).
		Map(func(a, b uint32) string {
			return fmt.Sprintf("%d + %d = %d", a, b, a+b)
		})

	suite.Equal([]reflect.Type{reflect.TypeOf("")}, f.Types())

	values, err := f.Apply(suite.route(http.MethodGet, "/sum/1/2"))
	suite.Require().NoError(err)
	suite.Equal([]interface{}{"1 + 2 = 3"}, values)
}

func (suite *FilterSuite) TestMapContext() {
	type key struct{}
	var (
		request = httptest.NewRequest(http.MethodGet, "/7", nil)
		f       = Param[int]().Map(func(ctx context.Context, v int) (string, error) {
			return fmt.Sprintf("%v:%d", ctx.Value(key{}), v), nil
		})
	)

	request = request.WithContext(context.WithValue(request.Context(), key{}, "value"))
	values, err := f.Apply(NewRoute(request))
	suite.Require().NoError(err)
	suite.Equal([]interface{}{"value:7"}, values)
}

func (suite *FilterSuite) TestMapErrors() {
	var (
		expected = errors.New("expected")
		custom   = Custom("TAG", "detail")

		unhandled = Any().Map(func() (string, error) { return "", expected })
		rejected  = Any().Map(func() (string, error) { return "", custom })
	)

	_, err := unhandled.Apply(suite.route(http.MethodGet, "/"))
	suite.assertRejection(CauseUnhandled, err)
	suite.ErrorIs(err, expected)

	_, err = rejected.Apply(suite.route(http.MethodGet, "/"))
	suite.Same(custom, err)
}

func (suite *FilterSuite) TestMapBadSignature() {
	badFuncs := []interface{}{
		"not a function",
		(func(uint32) string)(nil),
		func() string { return "" },
		func(string) string { return "" },
		func(uint32, uint32) string { return "" },
		func(uint32) {},
		func(uint32) error { return nil },
		func(uint32) (string, string) { return "", "" },
		func(...uint32) string { return "" },
	}

	for i, fn := range badFuncs {
		suite.Run(fmt.Sprintf("%d", i), func() {
			suite.Panics(func() {
				Param[uint32]().Map(fn)
			})
		})
	}
}

func (suite *FilterSuite) TestGuard() {
	f := Guard(Param[uint16](), func(v uint16) error {
		if v == 0 {
			return Custom("DIVIDE_BY_ZERO", "")
		}

		return nil
	})

	values, err := f.Apply(suite.route(http.MethodGet, "/2"))
	suite.Require().NoError(err)
	suite.Equal([]interface{}{uint16(2)}, values)

	_, err = f.Apply(suite.route(http.MethodGet, "/0"))
	suite.assertRejection(CauseCustom, err)
}

func (suite *FilterSuite) TestMethod() {
	f := Get().And(Path("a"))

	_, err := f.Apply(suite.route(http.MethodGet, "/a"))
	suite.NoError(err)

	_, err = f.Apply(suite.route(http.MethodPost, "/a"))
	suite.assertRejection(CauseMethodNotAllowed, err)

	for method, f := range map[string]*Filter{
		http.MethodPost:   Post(),
		http.MethodPut:    Put(),
		http.MethodDelete: Delete(),
		http.MethodPatch:  Method("patch"),
	} {
		_, err := f.Apply(suite.route(method, "/"))
		suite.NoError(err, method)
	}
}

func (suite *FilterSuite) TestMethods() {
	var (
		item = Path("todos").And(Param[uint64]()).And(End())
		f    = Methods(map[string]*Filter{
			"put":             item.Map(func(id uint64) string { return "put" }),
			http.MethodDelete: item.And(HeaderExact("Authorization", "Bearer admin")).Map(func(id uint64) string { return "delete" }),
		})
	)

	values, err := f.Apply(suite.route(http.MethodPut, "/todos/1"))
	suite.Require().NoError(err)
	suite.Equal([]interface{}{"put"}, values)

	// the branch's own NotFound is reported, not a MethodNotAllowed from PUT
	_, err = f.Apply(suite.route(http.MethodDelete, "/todos/1"))
	suite.assertRejection(CauseNotFound, err)

	_, err = f.Apply(suite.route(http.MethodPatch, "/todos/1"))
	suite.assertRejection(CauseMethodNotAllowed, err)

	suite.Panics(func() { Methods(nil) })
	suite.Panics(func() {
		Methods(map[string]*Filter{
			http.MethodGet:  Path("a"),
			http.MethodPost: Param[int](),
		})
	})
}

func (suite *FilterSuite) TestString() {
	f := Path("math").And(Param[uint16]().Or(Param[uint16]())).And(End())
	suite.Equal(`"math".and(param[uint16].or(param[uint16])).and(end())`, f.String())

	m := Methods(map[string]*Filter{http.MethodGet: Any(), http.MethodPost: Any()})
	suite.Equal("methods(GET: any(), POST: any())", m.String())
}

func TestFilter(t *testing.T) {
	suite.Run(t, new(FilterSuite))
}
