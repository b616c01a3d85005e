// Package types provides domain models shared across Formulary components.
//
// Zero-dependency design: formula.go, context.go, and errors.go use only
// encoding/json so the evaluation core pulls in nothing beyond the standard
// library. ID utilities in ids.go import uuid but are isolated for selective
// inclusion.
//
// Value representation: context slots hold float64, bool, string, or a
// structured result (map[string]any) produced by scoring formulas. Coercion
// between these lives here, in one place, so comparison semantics stay
// auditable (see ToNumber/ToBool/ToString).
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Sigil is the reference prefix accepted in front of any variable name.
// "$income" and "income" denote the same context slot.
const Sigil = "$"

// CanonicalName strips the reference sigil and surrounding whitespace,
// returning the canonical context key. All internal stages operate on
// canonical keys only; normalization happens once at the configuration
// boundary.
func CanonicalName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), Sigil)
}

// IsReference reports whether s carries the reference sigil.
func IsReference(s string) bool {
	return strings.HasPrefix(s, Sigil)
}

// ToNumber attempts numeric coercion of a context value.
// Accepts float64, int, int64 (JSON and YAML decoders produce all three),
// booleans (1/0), and numeric-looking strings. Whitespace-only strings are
// not numbers.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToBool attempts boolean coercion of a context value.
// Accepts booleans, "true"/"false" strings (case-insensitive), and numbers
// (non-zero is true).
func ToBool(v any) (bool, bool) {
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
	case float64:
		return b != 0, true
	case int:
		return b != 0, true
	case int64:
		return b != 0, true
	default:
		return false, false
	}
}

// ToString renders a context value as text.
// Floats format without trailing zeros so 5.0 and 5 compare equal as text.
func ToString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		if s {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
