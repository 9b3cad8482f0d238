// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievestore

import (
	"context"
	"io"

	"go.uber.org/fx"
)

const (
	// DriverMemory selects the in-memory store.  It is also used when no driver is set.
	DriverMemory = "memory"
)

// Config is the unmarshaled configuration for a Store.
type Config struct {
	// Driver is one of "memory", "postgres", or "mysql".
	Driver string

	// DSN is the data source name for SQL drivers.
	DSN string

	// MaxOpenConns bounds the SQL connection pool.  Zero or less is unbounded.
	MaxOpenConns int
}

// New creates the Store described by this configuration.  SQL stores are
// opened, but not migrated.
func (c Config) New() (Store, error) {
	if len(c.Driver) == 0 || c.Driver == DriverMemory {
		return NewMemory(), nil
	}

	d, err := DialectFor(c.Driver)
	if err != nil {
		return nil, err
	}

	return OpenSQL(d, c.DSN, c.MaxOpenConns)
}

// In describes the dependencies for a Store created through Provide.
type In struct {
	fx.In

	Config    Config
	Lifecycle fx.Lifecycle
}

// Provide returns an fx.Option that builds the configured Store and binds it to
// the application lifecycle.  Stores that can migrate are migrated on start,
// and stores that can be closed are closed on stop.
func Provide() fx.Option {
	return fx.Provide(
		func(in In) (Store, error) {
			s, err := in.Config.New()
			if err != nil {
				return nil, err
			}

			Bind(in.Lifecycle, s)
			return s, nil
		},
	)
}

// Bind attaches a Store's migration and close steps, if it has any, to a lifecycle.
func Bind(l fx.Lifecycle, s Store) {
	var hook fx.Hook
	if m, ok := s.(interface{ Migrate(context.Context) error }); ok {
		hook.OnStart = m.Migrate
	}

	if c, ok := s.(io.Closer); ok {
		hook.OnStop = func(context.Context) error {
			return c.Close()
		}
	}

	if hook.OnStart != nil || hook.OnStop != nil {
		l.Append(hook)
	}
}
