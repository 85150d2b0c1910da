package chunk

import (
	"fmt"
	"time"
)

// Options reads typed values out of a manifest entry's options map. The
// decoders disagree on numeric types, so numbers are accepted in any form.
type Options map[string]any

// String returns the string option key, or def when absent.
func (o Options) String(key, def string) (string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("option '%s' must be a string, got %T", key, v)
	}
	return s, nil
}

// Int returns the integer option key, or def when absent.
func (o Options) Int(key string, def int64) (int64, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := normalize(v).(type) {
	case int64:
		return n, nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("option '%s' must be an integer, got %v", key, n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("option '%s' must be a number, got %T", key, v)
	}
}

// Duration reads an integer option in milliseconds.
func (o Options) Duration(key string, def time.Duration) (time.Duration, error) {
	ms, err := o.Int(key, def.Milliseconds())
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		return 0, fmt.Errorf("option '%s' cannot be negative, got %d", key, ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// Strings returns the string-list option key.
func (o Options) Strings(key string) ([]string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := normalize(v).([]any)
	if !ok {
		return nil, fmt.Errorf("option '%s' must be a list, got %T", key, v)
	}
	out := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("option '%s'[%d] must be a string, got %T", key, i, item)
		}
		out[i] = s
	}
	return out, nil
}

// Value returns the raw option, normalized.
func (o Options) Value(key string) any {
	return normalize(o[key])
}
