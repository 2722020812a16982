// Package coerce implements the loose scalar coercions the reference
// platform applies to document values: cint/flt/cstr style conversions and
// script-style truthiness. Every rule here is observable through dependency
// expressions, so the edge cases (NaN, numeric-looking strings, untrimmed
// whitespace) are deliberate.
package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cint converts a value to an integer, truncating toward zero. Unparseable
// input becomes 0, never an error.
func Cint(value any) int {
	return int(Flt(value))
}

// Flt converts a value to a float64. Strings are trimmed and may carry
// grouping commas; unparseable input becomes 0.
func Flt(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		if math.IsNaN(v) {
			return 0
		}
		return v
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Cstr converts a value to its string form; nil becomes "".
func Cstr(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(value)
	}
}

// Truthy applies script-style truthiness: nil, false, 0, NaN, and the empty
// string are false; everything else is true, including whitespace-only
// strings and empty collections. Callers that need the "empty sequence is
// false" fallback apply it before calling here.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	case uint:
		return v != 0
	case uint64:
		return v != 0
	case float32:
		return v != 0 && !math.IsNaN(float64(v))
	case float64:
		return v != 0 && !math.IsNaN(v)
	default:
		return true
	}
}

// InList reports whether value is a member of list under loose equality.
// list may be a []any, []string, or a comma/newline separated string the way
// select options are authored.
func InList(list any, value any) bool {
	switch l := list.(type) {
	case nil:
		return false
	case []any:
		for _, item := range l {
			if LooseEq(item, value) {
				return true
			}
		}
	case []string:
		for _, item := range l {
			if LooseEq(item, value) {
				return true
			}
		}
	case string:
		for _, item := range strings.FieldsFunc(l, func(r rune) bool { return r == ',' || r == '\n' }) {
			if LooseEq(strings.TrimSpace(item), value) {
				return true
			}
		}
	}
	return false
}

// LooseEq compares two scalars with script-style `==` coercion: booleans and
// numeric strings collapse to numbers when compared against a number, nil
// only equals nil, and NaN equals nothing. Non-scalar values never compare
// loosely equal.
func LooseEq(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	as, aIsStr := stringValue(a)
	bs, bIsStr := stringValue(b)
	if aIsStr && bIsStr {
		return as == bs
	}

	af, aIsNum := NumberValue(a)
	bf, bIsNum := NumberValue(b)
	if aIsNum && bIsNum {
		return af == bf && !math.IsNaN(af) && !math.IsNaN(bf)
	}
	return false
}

func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

// NumberValue reports the numeric interpretation of a scalar: numbers pass
// through, booleans become 0/1, and strings parse (the empty string is 0,
// garbage is NaN, mirroring script coercion). Non-scalars do not convert.
func NumberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN(), true
		}
		return f, true
	case []byte:
		return NumberValue(string(n))
	default:
		return 0, false
	}
}
