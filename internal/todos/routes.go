// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package todos serves a CRUD API for Todos held in a sievestore.Store.
//
//	GET    /todos?offset=3&limit=5  lists todos as JSON
//	POST   /todos                   creates a todo from a JSON body
//	PUT    /todos/{id}              replaces a todo from a JSON body
//	DELETE /todos/{id}              deletes a todo, for admins only
package todos

import (
	"context"
	"math"
	"net/http"

	"github.com/xmidt-org/sieve"
	"github.com/xmidt-org/sieve/sievestore"
)

const (
	// DefaultBodyLimit is the largest JSON body accepted when Config.BodyLimit is unset.
	DefaultBodyLimit = 16 * 1024

	// DefaultAdminToken is the authorization header value required to delete
	// when Config.AdminToken is unset.
	DefaultAdminToken = "Bearer admin"
)

// Config is the unmarshaled configuration for the todo routes.
type Config struct {
	// BodyLimit is the largest JSON body, in bytes, the routes accept.
	BodyLimit int64

	// AdminToken is the exact authorization header value required by DELETE.
	AdminToken string
}

// ListOptions are the query parameters for listing todos.
type ListOptions struct {
	Offset *uint `query:"offset"`
	Limit  *uint `query:"limit"`
}

// window converts these options into a store offset and limit.  A missing
// limit means no limit.
func (lo ListOptions) window() (offset, limit int) {
	offset, limit = 0, math.MaxInt
	if lo.Offset != nil {
		offset = clamp(*lo.Offset)
	}

	if lo.Limit != nil {
		limit = clamp(*lo.Limit)
	}

	return
}

// clamp converts v to an int, saturating at math.MaxInt.
func clamp(v uint) int {
	if v >= math.MaxInt {
		return math.MaxInt
	}

	return int(v)
}

type handlers struct {
	store sievestore.Store
}

func (h handlers) list(ctx context.Context, lo ListOptions) (sieve.Reply, error) {
	offset, limit := lo.window()
	todos, err := h.store.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	return sieve.JSONReply(todos), nil
}

func (h handlers) create(ctx context.Context, t sievestore.Todo) (sieve.Reply, error) {
	created, err := h.store.Create(ctx, t)
	switch {
	case err != nil:
		return nil, err
	case created:
		return sieve.Status(http.StatusCreated), nil
	default:
		return sieve.Status(http.StatusBadRequest), nil
	}
}

func (h handlers) update(ctx context.Context, id uint64, t sievestore.Todo) (sieve.Reply, error) {
	found, err := h.store.Update(ctx, id, t)
	switch {
	case err != nil:
		return nil, err
	case found:
		return sieve.Status(http.StatusOK), nil
	default:
		return sieve.Status(http.StatusNotFound), nil
	}
}

func (h handlers) delete(ctx context.Context, id uint64) (sieve.Reply, error) {
	found, err := h.store.Delete(ctx, id)
	switch {
	case err != nil:
		return nil, err
	case found:
		return sieve.Status(http.StatusNoContent), nil
	default:
		return sieve.Status(http.StatusNotFound), nil
	}
}

// Routes builds the todo route tree over a store.  The tree matches /todos before
// it branches on method, so other paths are never answered with a bad method.
// A DELETE without the admin token is simply not found.
func Routes(store sievestore.Store, cfg Config) *sieve.Filter {
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = DefaultBodyLimit
	}

	if len(cfg.AdminToken) == 0 {
		cfg.AdminToken = DefaultAdminToken
	}

	var (
		h = handlers{store: store}

		collection = sieve.End()
		item       = sieve.Param[uint64]().And(sieve.End())
		body       = sieve.JSON[sievestore.Todo](cfg.BodyLimit)
	)

	return sieve.Path("todos").And(sieve.Methods(map[string]*sieve.Filter{
		http.MethodGet:    collection.And(sieve.Query[ListOptions]()).Map(h.list),
		http.MethodPost:   collection.And(body).Map(h.create),
		http.MethodPut:    item.And(body).Map(h.update),
		http.MethodDelete: item.And(sieve.HeaderExact("authorization", cfg.AdminToken)).Map(h.delete),
	}))
}
