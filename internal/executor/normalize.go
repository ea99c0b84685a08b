package executor

import (
	"database/sql/driver"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"
	"unicode/utf8"
)

// normalizeRow converts one row of driver-native values into JSON-safe
// scalars: timestamps become RFC3339 strings, decimal/numeric types become
// float64, byte slices become UTF-8 strings (replacing invalid sequences),
// NULL stays nil, and ordinary numbers/strings/bools pass through unchanged.
// The decimal-to-float64 conversion can lose precision, so results are not
// suitable for exact ledger arithmetic.
func normalizeRow(row []interface{}) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []byte:
		if utf8.Valid(val) {
			return string(val)
		}
		return string([]rune(string(val)))
	case *big.Rat:
		f, _ := val.Float64()
		return f
	case *big.Float:
		f, _ := val.Float64()
		return f
	case big.Rat:
		f, _ := val.Float64()
		return f
	case fmt.Stringer:
		// Covers driver-specific decimal/numeric wrapper types that
		// implement Stringer but aren't plain numbers; best-effort
		// float conversion falls back to the string form.
		s := val.String()
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
		return s
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return nil
		}
		return normalizeValue(inner)
	default:
		return val
	}
}
