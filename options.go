package warmup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Options is a crawler configuration mapping. Keys a crawler does not
// recognize are kept as they are.
type Options map[string]any

// ParseOptions decodes a JSON object into Options.
// Returns EOPTIONS if the payload is not a JSON object.
func ParseOptions(data []byte) (Options, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Options{}, nil
	}
	if data[0] != '{' {
		return nil, Errorf(EOPTIONS, "crawler options must be a JSON object")
	}
	var opts Options
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, WrapError(EOPTIONS, err, "crawler options could not be decoded")
	}
	if opts == nil {
		opts = Options{}
	}
	return opts, nil
}

// Merge returns a new Options holding o with every key from override
// replacing the value in o. Keys only present in o are kept.
func (o Options) Merge(override Options) Options {
	merged := make(Options, len(o)+len(override))
	for k, v := range o {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// Int returns the integer value of key, or def when the key is absent.
// JSON numbers without a fractional part are accepted.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, Errorf(EOPTIONS, "option %q must be an integer, got %v", key, n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, WrapError(EOPTIONS, err, "option %q must be an integer", key)
		}
		return int(i), nil
	}
	return 0, Errorf(EOPTIONS, "option %q must be an integer, got %T", key, v)
}

// Float returns the float value of key, or def when the key is absent.
func (o Options) Float(key string, def float64) (float64, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, Errorf(EOPTIONS, "option %q must be a number, got %T", key, v)
}

// String returns the string value of key, or def when the key is absent.
func (o Options) String(key string, def string) (string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", Errorf(EOPTIONS, "option %q must be a string, got %T", key, v)
	}
	return s, nil
}

// Bool returns the boolean value of key, or def when the key is absent.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, Errorf(EOPTIONS, "option %q must be a boolean, got %T", key, v)
	}
	return b, nil
}

// Duration returns the duration value of key, or def when the key is absent.
// Strings are parsed with time.ParseDuration; numbers are seconds.
func (o Options) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, WrapError(EOPTIONS, err, "option %q must be a duration", key)
		}
		return parsed, nil
	case float64:
		return time.Duration(d * float64(time.Second)), nil
	case int:
		return time.Duration(d) * time.Second, nil
	}
	return 0, Errorf(EOPTIONS, "option %q must be a duration, got %T", key, v)
}

// Map returns the nested mapping stored under key, or an empty Options.
func (o Options) Map(key string) (Options, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return Options{}, nil
	}
	switch m := v.(type) {
	case Options:
		return m, nil
	case map[string]any:
		return Options(m), nil
	case map[string]string:
		out := make(Options, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, nil
	}
	return nil, Errorf(EOPTIONS, "option %q must be a mapping, got %T", key, v)
}

// StringMap returns the nested mapping under key with every value
// rendered as a string. Used for request headers.
func (o Options) StringMap(key string) (map[string]string, error) {
	m, err := o.Map(key)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch s := v.(type) {
		case string:
			out[k] = s
		case []any:
			parts := make([]string, 0, len(s))
			for _, p := range s {
				parts = append(parts, fmt.Sprint(p))
			}
			out[k] = strings.Join(parts, ", ")
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out, nil
}
