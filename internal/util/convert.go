package util

import (
	"time"
)

// CellFloat returns a table cell as a float64. Durations count in seconds, times in
// unix seconds and bools as 0 or 1. Nulls and strings are 0.
func CellFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case time.Duration:
		return n.Seconds()
	case time.Time:
		return float64(n.UnixNano()) / 1e9
	case bool:
		if n {
			return 1
		}
	}
	return 0
}

// CellInt is CellFloat truncated toward zero.
func CellInt(v any) int64 {
	if n, ok := v.(int64); ok {
		return n
	}
	return int64(CellFloat(v))
}
