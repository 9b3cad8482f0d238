// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package demo holds the sample routes served next to the todo API: greetings,
// path arithmetic, query and header extraction, JSON bodies, a cancellable
// sleep, and a websocket echo.
//
// Every route matches its path before its method, so that a request for a path
// no route serves is reported as not found rather than as a bad method.
package demo

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xmidt-org/sieve"
	"github.com/xmidt-org/sieve/sievews"
	"go.uber.org/zap"
)

const (
	// TagDivideByZero is the Custom rejection tag for a zero div-by header.
	TagDivideByZero = "DIVIDE_BY_ZERO"

	// MaxSleep is the longest /sleep/{seconds} accepts.
	MaxSleep = 5

	// MathHelp is the answer to GET /math.
	MathHelp = "This is the Math api. Try calling /math/sum/:u32/:u32 or /math/:u16/times/:u16"

	defaultBodyLimit = 16 * 1024
)

// Tags are the Custom rejection tags these routes raise, with their status codes.
// Register them with the Dispatcher's Recovery.
func Tags() map[string]int {
	return map[string]int{
		TagDivideByZero: http.StatusBadRequest,
	}
}

// Config holds what the demo routes need from the enclosing application.
type Config struct {
	// BodyLimit is the largest JSON body accepted.  The default is 16 KiB.
	BodyLimit int64

	// Upgrader is used by /echo.  If nil, websocket defaults are used.
	Upgrader *websocket.Upgrader

	// Logger receives websocket faults.  If nil, nothing is logged.
	Logger *zap.Logger
}

// Employee is the JSON body of POST /employees/{rate}.
type Employee struct {
	Name string `json:"name"`
	Rate uint32 `json:"rate"`
}

// SumQuery is the query string of GET /sumquery.  Both values are required.
type SumQuery struct {
	Left  *uint32 `query:"left"`
	Right *uint32 `query:"right"`
}

// Math is the JSON answer to a division.
type Math struct {
	Op     string `json:"op"`
	Output uint16 `json:"output"`
}

func text(format string, args ...interface{}) sieve.Reply {
	return sieve.Text(fmt.Sprintf(format, args...))
}

func sum(a, b uint32) string {
	return fmt.Sprintf("%d + %d = %d", a, b, uint64(a)+uint64(b))
}

func times(a, b uint16) string {
	return fmt.Sprintf("%d times %d = %d", a, b, uint32(a)*uint32(b))
}

// divBy extracts the nonzero div-by header.
func divBy() *sieve.Filter {
	return sieve.Guard(sieve.Header[uint16]("div-by"), func(n uint16) error {
		if n == 0 {
			return sieve.Custom(TagDivideByZero, "")
		}

		return nil
	})
}

func sleep(ctx context.Context, seconds uint64) (sieve.Reply, error) {
	t := time.NewTimer(time.Duration(seconds) * time.Second)
	defer t.Stop()

	select {
	case <-t.C:
		return text("I waited %d seconds!", seconds), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// MathRoutes returns the routes under /math.
func MathRoutes() *sieve.Filter {
	help := sieve.End().Map(func() sieve.Reply {
		return sieve.Text(MathHelp)
	})

	add := sieve.All(sieve.Path("sum"), sieve.Param[uint32](), sieve.Param[uint32](), sieve.End()).
		Map(func(a, b uint32) sieve.Reply {
			return sieve.Text(sum(a, b))
		})

	multiply := sieve.All(sieve.Param[uint16](), sieve.Path("times"), sieve.Param[uint16](), sieve.End()).
		Map(func(a, b uint16) sieve.Reply {
			return sieve.Text(times(a, b))
		})

	divide := sieve.All(sieve.Param[uint16](), sieve.End(), divBy()).
		Map(func(num, denom uint16) sieve.Reply {
			return sieve.JSONReply(Math{
				Op:     fmt.Sprintf("%d / %d", num, denom),
				Output: num / denom,
			})
		})

	return sieve.Path("math").And(sieve.First(help, add, multiply, divide)).And(sieve.Get())
}

// Routes returns every demo route.
func Routes(cfg Config) *sieve.Filter {
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = defaultBodyLimit
	}

	get := func(f *sieve.Filter) *sieve.Filter {
		return f.And(sieve.End()).And(sieve.Get())
	}

	return sieve.First(
		get(sieve.Path("hi")).Map(func() sieve.Reply {
			return sieve.Text("Hello, world")
		}),

		get(sieve.Path("bye").And(sieve.Param[string]())).Map(func(name string) sieve.Reply {
			return text("Good bye, %s!", name)
		}),

		get(sieve.Segments("hello", "from", "warp")).Map(func() sieve.Reply {
			return sieve.Text("Hello from warp")
		}),

		MathRoutes(),

		get(sieve.All(sieve.Path("sum"), sieve.Param[uint32](), sieve.Param[uint32]())).
			Map(func(a, b uint32) sieve.Reply {
				return text("(This route has moved to /math/sum/:u16/:u16) %s", sum(a, b))
			}),

		get(sieve.All(sieve.Param[uint16](), sieve.Path("times"), sieve.Param[uint16]())).
			Map(func(a, b uint16) sieve.Reply {
				return text("(This route has moved to /math/:u16/times/:u16) %s", times(a, b))
			}),

		get(sieve.Path("sumquery")).And(sieve.Query[SumQuery]()).Map(func(q SumQuery) (sieve.Reply, error) {
			if q.Left == nil || q.Right == nil {
				return nil, sieve.InvalidParameter("left and right are both required")
			}

			return sieve.Text(sum(*q.Left, *q.Right)), nil
		}),

		get(sieve.Path("rawquery")).And(sieve.RawQuery()).Map(func(raw string) sieve.Reply {
			return sieve.Text(raw)
		}),

		get(sieve.Path("sleep").And(sieve.ParamMax[uint64](MaxSleep))).Map(sleep),

		get(sieve.Path("host")).
			And(sieve.HeaderExact("accept", "*/*")).
			And(sieve.Header[netip.AddrPort]("host")).
			Map(func(addr netip.AddrPort) sieve.Reply {
				return text("accepting stars on %s", addr)
			}),

		sieve.All(sieve.Path("employees"), sieve.Param[uint32](), sieve.End(), sieve.Post(), sieve.JSON[Employee](cfg.BodyLimit)).
			Map(func(rate uint32, e Employee) sieve.Reply {
				e.Rate = rate
				return sieve.JSONReply(e)
			}),

		get(sieve.Path("echo")).And(sievews.Upgrade(cfg.Upgrader)).Map(sievews.Echo(cfg.Logger)),

		sieve.End().And(sieve.Get()).Map(func() sieve.Reply {
			return sieve.Text("Hello, World!")
		}),
	)
}
