package utils

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number coerces a loosely typed JSON value to a finite float64.
// Numbers and numeric strings are accepted; anything else reports ok=false,
// never 0 or NaN, so a missing field stays distinguishable from a zero one.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// The int range; maxIntBound is one past the largest int so it converts to
// float64 exactly.
const (
	minInt      = -(1 << (strconv.IntSize - 1))
	maxIntBound = 1 << (strconv.IntSize - 1)
)

// Integer is Number restricted to integral values that fit an int.
func Integer(v any) (int, bool) {
	f, ok := Number(v)
	if !ok || f != math.Trunc(f) || f < minInt || f >= maxIntBound {
		return 0, false
	}
	return int(f), true
}

// Bool coerces true/false, 1/0 and the strings "true"/"false" (any case).
// Everything else is unknown and reports ok=false.
func Bool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		return false, false
	}

	f, ok := Number(v)
	if !ok {
		return false, false
	}
	switch f {
	case 1:
		return true, true
	case 0:
		return false, true
	}
	return false, false
}
