// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Command sieve serves the todo API and the demo routes over HTTP.
//
//	sieve -f sieve.yaml
//
// Every configuration key can also be set through the environment with a SIEVE_
// prefix, e.g. SIEVE_STORE_DRIVER=postgres.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gorilla/mux"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/sieve"
	"github.com/xmidt-org/sieve/internal/demo"
	"github.com/xmidt-org/sieve/internal/todos"
	"github.com/xmidt-org/sieve/sieveconfig"
	"github.com/xmidt-org/sieve/sievehttp"
	"github.com/xmidt-org/sieve/sievestore"
	"github.com/xmidt-org/sieve/sievews"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	applicationName = "sieve"
	envPrefix       = "SIEVE"
)

// Routes is the configuration shared by the route trees.
type Routes struct {
	Todos     todos.Config
	BodyLimit int64
	Websocket sievews.Config
}

// Log configures the application logger.
type Log struct {
	// Level is the minimum level logged, e.g. "debug" or "warn".
	Level zapcore.Level

	// Development selects zap's development configuration.
	Development bool
}

// NewLogger builds the logger this configuration describes.
func (l Log) NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if l.Development {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(l.Level)
	return cfg.Build()
}

func newLogger(cfg Log, lc fx.Lifecycle) (*zap.Logger, error) {
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// syncing stderr fails on some platforms
			logger.Sync()
			return nil
		},
	})

	return logger.Named(applicationName), nil
}

// setDefaults registers the values used for keys absent from every configuration source.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("server.network", "tcp")
	v.SetDefault("server.address", ":3030")
	v.SetDefault("store.driver", sievestore.DriverMemory)
	v.SetDefault("routes.todos.bodyLimit", todos.DefaultBodyLimit)
	v.SetDefault("routes.todos.adminToken", todos.DefaultAdminToken)
	v.SetDefault("routes.bodyLimit", 16*1024)
}

func newViper(args []string) (*viper.Viper, error) {
	fs := pflag.NewFlagSet(applicationName, pflag.ContinueOnError)
	file := fs.StringP("file", "f", "", "the configuration file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v, err := sieveconfig.New(*file, envPrefix)
	if err != nil {
		return nil, err
	}

	setDefaults(v)
	return v, nil
}

type dispatcherIn struct {
	fx.In

	Store  sievestore.Store
	Routes Routes
	Logger *zap.Logger
}

func newDispatcher(in dispatcherIn) (*sieve.Dispatcher, error) {
	tree := sieve.First(
		todos.Routes(in.Store, in.Routes.Todos),
		demo.Routes(demo.Config{
			BodyLimit: in.Routes.BodyLimit,
			Upgrader:  in.Routes.Websocket.NewUpgrader(),
			Logger:    in.Logger,
		}),
	)

	return sieve.NewDispatcher(
		tree,
		sieve.WithRecovery(sieve.NewRecovery(demo.Tags())),
		sieve.WithLogger(in.Logger.Named("dispatch")),
	)
}

// newApp assembles the application.  It does not start it.
func newApp(v *viper.Viper, o ...fx.Option) *fx.App {
	return fx.New(append(
		[]fx.Option{
			fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
				return &fxevent.ZapLogger{Logger: l.Named("fx")}
			}),
			sieveconfig.Supply(v, sieveconfig.DefaultDecodeHooks, sieveconfig.Exact),
			fx.Provide(
				sieveconfig.UnmarshalKey("log", Log{Level: zapcore.InfoLevel}),
				sieveconfig.UnmarshalKey("server", sievehttp.ServerConfig{}),
				sieveconfig.UnmarshalKey("store", sievestore.Config{}),
				sieveconfig.UnmarshalKey("routes", Routes{}),
				newLogger,
				newDispatcher,
			),
			sievestore.Provide(),
			sievehttp.Provide(sievehttp.NewListenChain()),
			fx.Invoke(
				func(r *mux.Router, d *sieve.Dispatcher) {
					sievehttp.Mount(r, d)
				},
			),
		},
		o...,
	)...)
}

func run(args []string) error {
	v, err := newViper(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	} else if err != nil {
		return err
	}

	app := newApp(v)
	if err := app.Err(); err != nil {
		return err
	}

	app.Run()
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
