package stage

import "math"

// Raw is the loosely typed parameter bag a config loader hands to a
// registered stage factory: one entry per YAML key under a stage's
// config block, decoded by gopkg.in/yaml.v3 into Go's usual
// string/float64/int/bool/[]any/map[string]any set. The typed accessors
// below absorb the float64-vs-int ambiguity yaml.v3 leaves behind so
// factory functions can read a field once instead of repeating a type
// switch.
type Raw map[string]any

// String returns raw[key] as a string, and whether it was present and
// of the right type.
func (r Raw) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns raw[key] as a bool, and whether it was present and of
// the right type.
func (r Raw) Bool(key string) (bool, bool) {
	v, ok := r[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Float64 returns raw[key] as a float64, accepting either a YAML float
// or integer scalar.
func (r Raw) Float64(key string) (float64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Float32 is Float64 narrowed to float32.
func (r Raw) Float32(key string) (float32, bool) {
	f, ok := r.Float64(key)
	return float32(f), ok
}

// Int returns raw[key] as an int, accepting either a YAML integer or a
// float scalar with no fractional part.
func (r Raw) Int(key string) (int, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// Float32Slice returns raw[key] as a []float32, accepting a YAML
// sequence of numeric scalars.
func (r Raw) Float32Slice(key string) ([]float32, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(list))
	for i, item := range list {
		switch n := item.(type) {
		case float64:
			out[i] = float32(n)
		case int:
			out[i] = float32(n)
		default:
			return nil, false
		}
	}
	return out, true
}
