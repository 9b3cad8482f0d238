// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieve

import (
	"encoding"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// QueryTagName is the struct tag consulted when decoding query strings.
const QueryTagName = "query"

// ErrUnsupportedType indicates that a type cannot be parsed from text.
var ErrUnsupportedType = errors.New("type cannot be parsed from text")

var (
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// TextUnmarshalerHookFunc is a mapstructure.DecodeHookFunc that honors the destination
// type's encoding.TextUnmarshaler implementation, using it to convert the src.  The src
// parameter must be a string, or else this function does not attempt any conversion.
//
// The to type must be either a non-pointer type whose pointer implements
// encoding.TextUnmarshaler, like time.Time or netip.Addr, or a pointer type that
// implements encoding.TextUnmarshaler itself.  In any case where this function
// does no conversion, it returns src and a nil error.
func TextUnmarshalerHookFunc(_, to reflect.Type, src interface{}) (interface{}, error) {
	if text, ok := src.(string); ok {
		switch {
		case to.Kind() != reflect.Ptr && reflect.PtrTo(to).Implements(textUnmarshalerType):
			ptr := reflect.New(to)
			err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text))
			return ptr.Elem().Interface(), err

		case to.Kind() == reflect.Ptr && to.Elem().Kind() != reflect.Ptr && to.Implements(textUnmarshalerType):
			ptr := reflect.New(to.Elem())
			tu := ptr.Interface().(encoding.TextUnmarshaler)
			err := tu.UnmarshalText([]byte(text))
			return tu, err
		}
	}

	return src, nil
}

// DecodeQuery decodes an encoded query string into target, which must be a
// pointer to a struct or map.  Struct fields are matched using the "query" tag,
// falling back to case-insensitive field names.  Pointer fields are left nil
// when their key is absent, which is how optional parameters are expressed.
// Values are weakly typed, so "10" decodes into an int.
func DecodeQuery(raw string, target interface{}) error {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return err
	}

	input := make(map[string]interface{}, len(values))
	for key, v := range values {
		if len(v) == 1 {
			input[key] = v[0]
		} else {
			input[key] = v
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			TextUnmarshalerHookFunc,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		TagName:          QueryTagName,
		Result:           target,
	})

	if err != nil {
		return err
	}

	return decoder.Decode(input)
}

// parsable determines whether ParseText supports a type.
func parsable(t reflect.Type) bool {
	if reflect.PtrTo(t).Implements(textUnmarshalerType) {
		return true
	}

	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true

	case reflect.Ptr:
		return t.Elem().Kind() != reflect.Ptr && parsable(t.Elem())

	default:
		return false
	}
}

// ParseText parses text into a T.  Supported types are strings, bools, integers,
// floats, pointers to any of those, and anything whose pointer implements
// encoding.TextUnmarshaler.  Integers are parsed in base 10 and must fit in T,
// so "300" is not a valid uint8.
func ParseText[T any](text string) (v T, err error) {
	err = setText(reflect.ValueOf(&v).Elem(), text)
	return
}

func setText(target reflect.Value, text string) error {
	if tu, ok := target.Addr().Interface().(encoding.TextUnmarshaler); ok {
		return tu.UnmarshalText([]byte(text))
	}

	t := target.Type()
	switch t.Kind() {
	case reflect.String:
		target.SetString(text)

	case reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return err
		}

		target.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text, 10, t.Bits())
		if err != nil {
			return err
		}

		target.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(text, 10, t.Bits())
		if err != nil {
			return err
		}

		target.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, t.Bits())
		if err != nil {
			return err
		}

		target.SetFloat(f)

	case reflect.Ptr:
		ptr := reflect.New(t.Elem())
		if err := setText(ptr.Elem(), text); err != nil {
			return err
		}

		target.Set(ptr)

	default:
		return fmt.Errorf("%s: %w", t, ErrUnsupportedType)
	}

	return nil
}
