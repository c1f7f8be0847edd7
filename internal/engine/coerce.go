package engine

import (
	"fmt"
	"strconv"
)

// The engine boundary yields untyped values (int64, float64, string, []byte
// or nil depending on storage class). These helpers coerce them at each call
// site instead of letting any-typed records spread through view code.

// Int returns row[col] as an int, 0 when absent or non-numeric.
func Int(row Row, col string) int {
	switch v := row[col].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case int:
		return v
	case []byte:
		n, _ := strconv.Atoi(string(v))
		return n
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// Float returns row[col] as a float64, 0 when absent or non-numeric.
func Float(row Row, col string) float64 {
	switch v := row[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// String returns row[col] rendered as a string, "" for NULL/absent.
func String(row Row, col string) string {
	switch v := row[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Value returns the raw cell, nil when absent.
func Value(row Row, col string) any { return row[col] }
