package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/quarterbit/formulary/internal/types"
)

/*
 * Comparison operator logic for condition trees.
 *
 * Implements the 12 condition operators with centrally defined coercion
 * (types.ToNumber/ToBool/ToString) so comparison semantics stay auditable
 * in one place instead of scattering ad hoc parsing across operators.
 *
 * Comparison rules:
 *   - == / != try numeric equality (with a small epsilon so 6-decimal
 *     rounded function results compare cleanly), then boolean coercion,
 *     then text equality.
 *   - Ordering operators (< <= > >=, between) require numeric coercion of
 *     both sides; two plain strings fall back to lexicographic order,
 *     anything else incomparable is a non-match, never an error.
 *   - in / not_in require a list on the right; a non-list is a shape fault.
 *   - contains matches substrings on text and membership on lists.
 *   - starts_with / ends_with match text only.
 *
 * Why function-based: the operator set is closed and each variant carries
 * minimal behavior, so one switch reads better than 12 interface
 * implementations.
 */

// Condition operators accepted in configuration documents.
const (
	OpEq         = "=="
	OpNeq        = "!="
	OpGt         = ">"
	OpGte        = ">="
	OpLt         = "<"
	OpLte        = "<="
	OpBetween    = "between"
	OpIn         = "in"
	OpNotIn      = "not_in"
	OpContains   = "contains"
	OpStartsWith = "starts_with"
	OpEndsWith   = "ends_with"
)

// numericEpsilon absorbs float noise in equality comparisons.
const numericEpsilon = 1e-9

// Compare applies op to value and target, coercing where the operator
// requires it. Unknown operators fail with ErrUnknownOperator.
func Compare(op string, value, target any) (bool, error) {
	switch op {
	case OpEq:
		return compareEqual(value, target), nil
	case OpNeq:
		return !compareEqual(value, target), nil
	case OpGt:
		cmp, ok := compareOrdered(value, target)
		return ok && cmp > 0, nil
	case OpGte:
		cmp, ok := compareOrdered(value, target)
		return ok && cmp >= 0, nil
	case OpLt:
		cmp, ok := compareOrdered(value, target)
		return ok && cmp < 0, nil
	case OpLte:
		cmp, ok := compareOrdered(value, target)
		return ok && cmp <= 0, nil
	case OpBetween:
		return compareBetween(value, target)
	case OpIn:
		return compareIn(value, target)
	case OpNotIn:
		matched, err := compareIn(value, target)
		if err != nil {
			return false, err
		}
		return !matched, nil
	case OpContains:
		return compareContains(value, target), nil
	case OpStartsWith:
		vs, ts, ok := bothStrings(value, target)
		return ok && strings.HasPrefix(vs, ts), nil
	case OpEndsWith:
		vs, ts, ok := bothStrings(value, target)
		return ok && strings.HasSuffix(vs, ts), nil
	default:
		return false, fmt.Errorf("operator %q: %w", op, types.ErrUnknownOperator)
	}
}

// compareEqual performs equality with layered coercion: numeric first,
// boolean second, text last.
func compareEqual(a, b any) bool {
	na, oka := types.ToNumber(a)
	nb, okb := types.ToNumber(b)
	if oka && okb {
		return math.Abs(na-nb) < numericEpsilon
	}
	ba, oka := types.ToBool(a)
	bb, okb := types.ToBool(b)
	if oka && okb {
		return ba == bb
	}
	return types.ToString(a) == types.ToString(b)
}

// compareOrdered performs three-way comparison. Both sides numeric wins;
// two genuine strings compare lexicographically; anything else is
// incomparable (ok=false).
func compareOrdered(a, b any) (int, bool) {
	na, oka := types.ToNumber(a)
	nb, okb := types.ToNumber(b)
	if oka && okb {
		switch {
		case math.Abs(na-nb) < numericEpsilon:
			return 0, true
		case na < nb:
			return -1, true
		default:
			return 1, true
		}
	}
	sa, oka := a.(string)
	sb, okb := b.(string)
	if oka && okb {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

// compareBetween checks inclusive bounds. Target must be a two-element list.
func compareBetween(value, target any) (bool, error) {
	bounds, ok := asList(target)
	if !ok || len(bounds) != 2 {
		return false, fmt.Errorf("operator %q requires a [low, high] pair: %w", OpBetween, types.ErrInvalidStructure)
	}
	lowCmp, okLow := compareOrdered(value, bounds[0])
	highCmp, okHigh := compareOrdered(value, bounds[1])
	return okLow && okHigh && lowCmp >= 0 && highCmp <= 0, nil
}

// compareIn checks membership with equality semantics.
func compareIn(value, target any) (bool, error) {
	list, ok := asList(target)
	if !ok {
		return false, fmt.Errorf("operator %q requires a list: %w", OpIn, types.ErrInvalidStructure)
	}
	for _, elem := range list {
		if compareEqual(value, elem) {
			return true, nil
		}
	}
	return false, nil
}

// compareContains matches substring on text values and membership on lists.
func compareContains(value, target any) bool {
	if list, ok := asList(value); ok {
		for _, elem := range list {
			if compareEqual(elem, target) {
				return true
			}
		}
		return false
	}
	vs, ok := value.(string)
	if !ok {
		return false
	}
	return strings.Contains(vs, types.ToString(target))
}

func bothStrings(a, b any) (string, string, bool) {
	sa, oka := a.(string)
	sb, okb := b.(string)
	return sa, sb, oka && okb
}

// asList normalizes the slice shapes produced by JSON decoding.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(l))
		for i, f := range l {
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}
