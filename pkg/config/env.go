package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ApplyEnv overlays environment variables (KEY=VALUE pairs) onto c.
// Keys mirror the YAML layout: store.redis.addr is SWITCHBOARD_STORE_REDIS_ADDR.
// List values are comma-separated.
func (c *Config) ApplyEnv(environ []string) error {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix+"_") {
			env[k] = v
		}
	}
	if len(env) == 0 {
		return nil
	}

	overlay := make(map[string]any)
	for _, path := range fieldPaths(reflect.TypeOf(*c), nil) {
		name := EnvPrefix + "_" + strings.ToUpper(strings.Join(path, "_"))
		if v, ok := env[name]; ok {
			setPath(overlay, path, v)
		}
	}
	if len(overlay) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(overlay); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}

// fieldPaths lists the mapstructure paths of every leaf field of t.
func fieldPaths(t reflect.Type, prefix []string) [][]string {
	var out [][]string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		path := append(append([]string(nil), prefix...), tag)
		if f.Type.Kind() == reflect.Struct {
			out = append(out, fieldPaths(f.Type, path)...)
			continue
		}
		out = append(out, path)
	}
	return out
}

func setPath(m map[string]any, path []string, v string) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}
