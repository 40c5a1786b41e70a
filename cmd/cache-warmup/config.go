package main

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/alecthomas/kong"
)

// loadConfig reads a JSON configuration file. Keys may be spelled like the
// flags (log-level) in addition to the snake_case (log_level) and camelCase
// (logLevel) forms kong.JSON understands.
func loadConfig(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fallback, err := kong.JSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	values := map[string]any{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}

	return kong.ResolverFunc(func(ctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if raw, ok := values[flag.Name]; ok {
			return raw, nil
		}
		return fallback.Resolve(ctx, parent, flag)
	}), nil
}
