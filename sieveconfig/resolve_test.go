// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieveconfig

import (
	"net/netip"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type nestedConfig struct {
	Timeout time.Duration
	Created time.Time
	Peer    netip.AddrPort
}

type Embedded struct {
	Shared string
}

type keyedConfig struct {
	Embedded `mapstructure:",squash"`

	Name    string
	Renamed string `mapstructure:"alias"`
	Skipped string `mapstructure:"-"`
	Nested  nestedConfig
	Pointer *nestedConfig
	Header  map[string][]string

	hidden string
}

func TestFieldKeys(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(
		[]string{
			"root.shared",
			"root.name",
			"root.alias",
			"root.nested.timeout",
			"root.nested.created",
			"root.nested.peer",
			"root.pointer.timeout",
			"root.pointer.created",
			"root.pointer.peer",
			"root.header",
		},
		fieldKeys("root", reflect.TypeOf(keyedConfig{})),
	)

	assert.Equal([]string{"timeout", "created", "peer"}, fieldKeys("", reflect.TypeOf(new(nestedConfig))))
	assert.Empty(fieldKeys("root", reflect.TypeOf("")))
}

func TestSetPath(t *testing.T) {
	m := map[string]interface{}{
		"store":  map[string]interface{}{"driver": "memory"},
		"server": "not a map",
	}

	setPath(m, []string{"store", "dsn"}, "postgres://")
	setPath(m, []string{"server", "address"}, ":8080")
	setPath(m, []string{"top"}, 1)

	assert.Equal(t,
		map[string]interface{}{
			"store":  map[string]interface{}{"driver": "memory", "dsn": "postgres://"},
			"server": map[string]interface{}{"address": ":8080"},
			"top":    1,
		},
		m,
	)
}
