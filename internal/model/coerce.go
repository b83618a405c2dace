package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field values survive a JSON round-trip as strings, float64s, and bools.
// The coercion helpers below accept both the native types callers write and
// the decoded shapes a snapshot restore produces.

// CoerceString returns the string form of a field value, or "" if the value
// is nil or not string-like.
func CoerceString(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case EntityType:
		return string(vv)
	default:
		return ""
	}
}

// CoerceDecimal converts a field value to a decimal. Accepts
// decimal.Decimal, numeric strings, and JSON numbers.
func CoerceDecimal(v any) (decimal.Decimal, bool) {
	switch vv := v.(type) {
	case decimal.Decimal:
		return vv, true
	case string:
		d, err := decimal.NewFromString(vv)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case float64:
		return decimal.NewFromFloat(vv), true
	case int:
		return decimal.NewFromInt(int64(vv)), true
	case int64:
		return decimal.NewFromInt(vv), true
	default:
		return decimal.Zero, false
	}
}

// CoerceTime converts a field value to a time. Accepts time.Time and
// RFC 3339 strings.
func CoerceTime(v any) (time.Time, bool) {
	switch vv := v.(type) {
	case time.Time:
		return vv, true
	case string:
		t, err := time.Parse(time.RFC3339, vv)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

// CoerceBool converts a field value to a bool.
func CoerceBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// IsEmptyValue reports whether a field value counts as missing for
// required-field validation: nil, empty string, or empty slice.
func IsEmptyValue(v any) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case string:
		return vv == ""
	case []any:
		return len(vv) == 0
	case []string:
		return len(vv) == 0
	case []LineItem:
		return len(vv) == 0
	default:
		return false
	}
}
