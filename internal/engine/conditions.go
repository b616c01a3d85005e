package engine

import (
	"github.com/quarterbit/formulary/internal/types"
)

/*
 * Condition tree evaluation.
 *
 * Trees are either a leaf comparison or a boolean group; groups evaluate
 * short-circuiting (AND stops at the first false, OR at the first true).
 * Degenerate groups are rejected at normalization, but the walker re-checks
 * because codegen and tests construct trees directly.
 *
 * Leaf resolution: a leaf with a var reads it from context; a leaf without
 * one compares against the enclosing subject (switch variable, accumulative
 * rule variable, or scoring dimension). A variable absent from context makes
 * the leaf false so evaluation falls through to later cases or the default
 * branch; only expressions treat absent variables as hard faults.
 *
 * The right-hand value may itself be a "$" reference, resolved against the
 * same context at comparison time.
 */

// subject carries the implicit left-hand value for leaves without a var.
type subject struct {
	value any
	ok    bool
	bound bool // false when the enclosing kind has no implicit variable
}

func noSubject() subject { return subject{} }

func boundSubject(v any, ok bool) subject {
	return subject{value: v, ok: ok, bound: true}
}

// evalCondition walks one condition tree against ctx.
func evalCondition(c *types.Condition, sub subject, ctx *types.Context) (bool, error) {
	if c == nil {
		return false, &types.StructureError{Reason: "nil condition"}
	}
	if len(c.And) > 0 {
		for _, child := range c.And {
			matched, err := evalCondition(child, sub, ctx)
			if err != nil {
				return false, err
			}
			if !matched {
				return false, nil
			}
		}
		return true, nil
	}
	if len(c.Or) > 0 {
		for _, child := range c.Or {
			matched, err := evalCondition(child, sub, ctx)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil
	}
	if c.Op == "" {
		return false, &types.StructureError{Reason: "condition group without children"}
	}

	var left any
	switch {
	case c.Var != "":
		v, ok := ctx.Get(c.Var)
		if !ok {
			return false, nil
		}
		left = v
	case sub.bound:
		if !sub.ok {
			return false, nil
		}
		left = sub.value
	default:
		return false, &types.StructureError{Reason: "condition leaf missing var"}
	}

	target := c.Value
	if ref, ok := target.(string); ok && types.IsReference(ref) {
		v, found := ctx.Get(ref)
		if !found {
			return false, nil
		}
		target = v
	}

	return Compare(c.Op, left, target)
}
