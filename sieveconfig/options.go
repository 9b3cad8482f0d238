// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieveconfig

import (
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/xmidt-org/sieve"
)

// Exact fails decoding when the configuration holds keys the target doesn't have,
// which catches misspelled keys in a configuration file.
func Exact(dc *mapstructure.DecoderConfig) {
	dc.ErrorUnused = true
}

// Merge flattens groups of options into one option that applies each, in order.
func Merge(groups ...[]viper.DecoderConfigOption) viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		for _, g := range groups {
			for _, o := range g {
				o(dc)
			}
		}
	}
}

// DefaultDecodeHooks installs the decode hooks used for sieve configuration:
// durations, comma separated slices, and any encoding.TextUnmarshaler such as
// a zapcore.Level or a netip.AddrPort.
func DefaultDecodeHooks(dc *mapstructure.DecoderConfig) {
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		sieve.TextUnmarshalerHookFunc,
	)
}
