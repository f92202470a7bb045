// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides layered configuration sources which are merged
// into a single key value store and then decoded into a custom type.
//
// Sources are applied in order, so values from later sources override
// values from earlier ones:
//
//	m, err := config.Read(
//	    config.FromYaml(bytes.NewReader(defaults)),
//	    config.FromYaml(config.RenderTextTemplate(f, config.TemplateFunc("env", configtmpl.Env))),
//	)
//	if err != nil {
//	    return err
//	}
//
//	var cfg MyConfig
//	err = m.Unmarshal(&cfg)
//
// Struct fields are matched using the "config" struct tag.
package config

import (
	"encoding"
	"reflect"
	"time"

	"github.com/z5labs/bundlebridge/pkg/config/key"

	"github.com/mitchellh/mapstructure"
)

// Store represents a general key value structure.
type Store interface {
	Set(key.Keyer, any) error
}

// Source defines valid config sources as those who can
// serialize themselves into a key value like structure.
type Source interface {
	Apply(Store) error
}

// Manager holds the result of applying one or more Sources.
type Manager struct {
	store Map
}

// Read applies every Source, in order, to a fresh store.
// Subsequent sources override previous sources.
func Read(srcs ...Source) (*Manager, error) {
	store := make(Map)
	for _, src := range srcs {
		err := src.Apply(store)
		if err != nil {
			return nil, err
		}
	}
	return &Manager{store: store}, nil
}

// Unmarshal decodes the merged config into v, which must be a pointer.
// Strings are converted to any type implementing [encoding.TextUnmarshaler]
// (e.g. net.IP) and to time.Duration.
func (m *Manager) Unmarshal(v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		Result:           v,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			timeDurationHookFunc(),
			textUnmarshalerHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(m.store))
}

var durationType = reflect.TypeOf(time.Duration(0))

func timeDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != durationType {
			return data, nil
		}

		switch f.Kind() {
		case reflect.String:
			return time.ParseDuration(reflect.ValueOf(data).String())
		case reflect.Int, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()), nil
		default:
			return data, nil
		}
	}
}

func textUnmarshalerHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		ptr := reflect.New(t)
		u, ok := ptr.Interface().(encoding.TextUnmarshaler)
		if !ok {
			return data, nil
		}
		err := u.UnmarshalText([]byte(reflect.ValueOf(data).String()))
		if err != nil {
			return nil, err
		}
		return ptr.Elem().Interface(), nil
	}
}
