package proto

import (
	"math"
	"strconv"
	"strings"
)

// toFloat accepts every numeric kind msgpack may decode into.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// toBoolLike normalizes booleans, numbers and strings. Absent values are false.
func toBoolLike(v any) (bool, bool) {
	switch b := v.(type) {
	case nil:
		return false, true
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "", "0", "false":
			return false, true
		default:
			return true, true
		}
	default:
		if n, ok := toFloat(v); ok {
			return n != 0, true
		}
		return false, false
	}
}

// fitsInt32 reports whether n truncates to an int32 without wrapping.
func fitsInt32(n float64) bool {
	return n >= math.MinInt32 && n <= math.MaxInt32
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// arg returns payload[i] or nil when the tuple is shorter.
func arg(payload []any, i int) any {
	if i < len(payload) {
		return payload[i]
	}
	return nil
}
