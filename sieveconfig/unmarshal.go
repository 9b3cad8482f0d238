// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieveconfig

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// ErrNilViper is returned to the fx.App when a nil Viper is supplied.
var ErrNilViper = errors.New("the viper instance cannot be nil")

// In is the set of dependencies for the constructors returned by UnmarshalKey.
type In struct {
	fx.In

	// Viper is the required configuration source.
	Viper *viper.Viper

	// DecodeOptions are optional options applied to every unmarshal, before
	// the options passed to UnmarshalKey.
	DecodeOptions []viper.DecoderConfigOption `optional:"true"`
}

// UnmarshalKey returns an fx constructor for a T unmarshaled from the given key.
// The constructor starts from a copy of defaults, so keys absent from the
// configuration keep their default values.
//
// Each field's key is resolved on its own, so an environment variable or a Viper
// default for server.address is honored even when a file supplies other server keys,
// and even when nothing else mentions the key at all.
//
//	fx.Provide(
//		sieveconfig.UnmarshalKey("store", sievestore.Config{Driver: "memory"}),
//	)
func UnmarshalKey[T any](key string, defaults T, opts ...viper.DecoderConfigOption) func(In) (T, error) {
	return func(in In) (T, error) {
		resolved, err := resolve(in.Viper, strings.ToLower(key), reflect.TypeOf((*T)(nil)).Elem())
		if err != nil {
			return defaults, fmt.Errorf("unable to resolve key %q: %w", key, err)
		}

		v := defaults
		if err := resolved.UnmarshalKey(key, &v, Merge(in.DecodeOptions, opts)); err != nil {
			return defaults, fmt.Errorf("unable to unmarshal key %q: %w", key, err)
		}

		return v, nil
	}
}

// New creates a Viper that reads environment variables with the given prefix and,
// if file is not empty, that configuration file.  Nested keys map onto variables
// with underscores, so server.address is read from PREFIX_SERVER_ADDRESS.
func New(file, envPrefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(file) > 0 {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read configuration file %s: %w", file, err)
		}
	}

	return v, nil
}

// Supply makes a Viper and decode options available to an fx.App.
func Supply(v *viper.Viper, opts ...viper.DecoderConfigOption) fx.Option {
	if v == nil {
		return fx.Error(ErrNilViper)
	}

	return fx.Options(
		fx.Supply(v),
		fx.Provide(
			func() []viper.DecoderConfigOption {
				return append([]viper.DecoderConfigOption{}, opts...)
			},
		),
	)
}
