// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieveconfig

import (
	"encoding"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	timeType            = reflect.TypeOf(time.Time{})
)

// resolve produces a Viper holding every setting of v, with each key that t's
// fields name under key looked up individually.  Viper only reports environment
// variables for keys it is asked about, so this is what lets an environment-only
// key like PREFIX_STORE_DSN reach a struct unmarshaled from "store".
func resolve(v *viper.Viper, key string, t reflect.Type) (*viper.Viper, error) {
	settings := v.AllSettings()
	for _, path := range fieldKeys(key, t) {
		if v.IsSet(path) {
			setPath(settings, strings.Split(path, "."), v.Get(path))
		}
	}

	resolved := viper.New()
	if err := resolved.MergeConfigMap(settings); err != nil {
		return nil, err
	}

	return resolved, nil
}

// fieldKeys lists the lowercased configuration keys of a struct's leaf fields,
// following mapstructure's naming.  Nested structs contribute their own leaves.
func fieldKeys(prefix string, t reflect.Type) (keys []string) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, squash := f.Name, false
		if tag, ok := f.Tag.Lookup("mapstructure"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			} else if len(parts[0]) > 0 {
				name = parts[0]
			}

			for _, p := range parts[1:] {
				squash = squash || p == "squash"
			}
		}

		path := strings.ToLower(name)
		if len(prefix) > 0 {
			path = prefix + "." + path
		}

		switch {
		case squash:
			keys = append(keys, fieldKeys(prefix, f.Type)...)

		case isNested(f.Type):
			keys = append(keys, fieldKeys(path, f.Type)...)

		default:
			keys = append(keys, path)
		}
	}

	return
}

// isNested tests whether t is a struct decoded field by field, as opposed to a
// value decoded whole, such as a time.Time or anything parsed from text.
func isNested(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.Kind() == reflect.Struct &&
		t != timeType &&
		!reflect.PtrTo(t).Implements(textUnmarshalerType)
}

func setPath(m map[string]interface{}, path []string, value interface{}) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			m[p] = next
		}

		m = next
	}

	m[path[len(path)-1]] = value
}
