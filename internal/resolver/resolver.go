// Package resolver produces a dependency-respecting execution order for a
// formula list.
package resolver

import (
	"github.com/quarterbit/formulary/internal/expr"
	"github.com/quarterbit/formulary/internal/types"
)

/*
 * Execution-order resolution.
 *
 * Dependencies are collected statically from each formula: declared inputs,
 * identifiers in expression text, the switch variable, every var mentioned
 * in condition trees (including
 * "$" references on the value side), accumulative rule variables, scoring
 * dimensions, "$" references in scoring result fields, and variable-shaped
 * function parameters. Outputs are the
 * formula id, its alias, and every set_vars key anywhere inside the formula
 * (cases, defaults, ranges, scoring nodes) - the dynamic outputs.
 *
 * A variable no formula produces is assumed to be an external input and
 * never blocks placement.
 *
 * Ordering is an iterative fixed point: each round places every unplaced
 * formula whose dependencies are all external or already placed, bounded at
 * 3xN rounds. A round with no progress means a dependency cycle; the tie is
 * broken by placing the remaining formula with the fewest unmet
 * dependencies (first in input order on ties). That guarantees termination
 * but not correctness for genuinely circular configurations, so every
 * deadlock-break is reported in a CircularDependencyWarning for callers to
 * surface.
 */

// roundFactor bounds the fixed-point iteration at roundFactor * len(formulas).
const roundFactor = 3

// Order returns formulas rearranged so every formula appears after all
// formulas producing a variable it consumes. A non-nil warning lists
// formulas placed by deadlock-breaking.
func Order(formulas []types.Formula) ([]types.Formula, *types.CircularDependencyWarning) {
	n := len(formulas)
	if n == 0 {
		return nil, nil
	}

	deps := make([][]string, n)
	produced := make(map[string]bool)
	for i := range formulas {
		deps[i] = collectDeps(&formulas[i])
		for _, out := range collectOutputs(&formulas[i]) {
			produced[out] = true
		}
	}

	available := make(map[string]bool)
	placed := make([]bool, n)
	ordered := make([]types.Formula, 0, n)
	var broken []string

	place := func(i int) {
		placed[i] = true
		ordered = append(ordered, formulas[i])
		for _, out := range collectOutputs(&formulas[i]) {
			available[out] = true
		}
	}

	unmet := func(i int) int {
		count := 0
		for _, d := range deps[i] {
			if produced[d] && !available[d] {
				count++
			}
		}
		return count
	}

	for round := 0; round < roundFactor*n && len(ordered) < n; round++ {
		progress := false
		for i := range formulas {
			if placed[i] || unmet(i) > 0 {
				continue
			}
			place(i)
			progress = true
		}
		if progress || len(ordered) == n {
			continue
		}

		// deadlock: place the remaining formula with the fewest unmet deps
		best := -1
		bestUnmet := 0
		for i := range formulas {
			if placed[i] {
				continue
			}
			u := unmet(i)
			if best == -1 || u < bestUnmet {
				best = i
				bestUnmet = u
			}
		}
		broken = append(broken, formulas[best].ID)
		place(best)
	}

	// the round bound can only be hit by pathological inputs; emit whatever
	// remains in input order so the result is still a permutation
	for i := range formulas {
		if !placed[i] {
			broken = append(broken, formulas[i].ID)
			place(i)
		}
	}

	if len(broken) > 0 {
		return ordered, &types.CircularDependencyWarning{FormulaIDs: broken}
	}
	return ordered, nil
}

// Outputs returns every context key the formula can write: primary id,
// alias, and all dynamic set_vars keys. Exposed for the code generator's
// input analysis.
func Outputs(f *types.Formula) []string {
	return collectOutputs(f)
}

// Deps returns every context key the formula reads, deduplicated, with the
// formula's own outputs excluded. Exposed for the code generator's input
// analysis.
func Deps(f *types.Formula) []string {
	return collectDeps(f)
}

// collectOutputs returns every context key the formula can write: primary
// id, alias, and all dynamic set_vars keys.
func collectOutputs(f *types.Formula) []string {
	out := []string{f.ID}
	if f.As != "" {
		out = append(out, f.As)
	}
	for i := range f.When {
		out = appendKeys(out, f.When[i].SetVars)
	}
	if f.Default != nil {
		out = appendKeys(out, f.Default.SetVars)
	}
	for i := range f.Rules {
		for j := range f.Rules[i].Ranges {
			out = appendKeys(out, f.Rules[i].Ranges[j].SetVars)
		}
	}
	if f.Scoring != nil {
		out = collectNodeOutputs(out, f.Scoring.Ranges)
	}
	return out
}

func collectNodeOutputs(out []string, nodes []types.ScoringNode) []string {
	for i := range nodes {
		out = appendKeys(out, nodes[i].SetVars)
		out = collectNodeOutputs(out, nodes[i].Ranges)
	}
	return out
}

// collectDeps returns every context key the formula reads, deduplicated,
// excluding its own outputs (a case's set_vars may feed a sibling case of
// the same formula).
func collectDeps(f *types.Formula) []string {
	seen := make(map[string]bool)
	var deps []string
	add := func(name string) {
		key := types.CanonicalName(name)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		deps = append(deps, key)
	}

	for _, in := range f.Inputs {
		add(in)
	}
	if f.Expression != "" {
		for _, name := range expr.Identifiers(f.Expression) {
			add(name)
		}
	}
	if f.Switch != "" {
		add(f.Switch)
	}
	for i := range f.When {
		addConditionVars(f.When[i].If, add)
		addValueRef(f.When[i].Result, add)
	}
	if f.Default != nil {
		addValueRef(f.Default.Result, add)
	}
	for i := range f.Rules {
		rule := &f.Rules[i]
		add(rule.Var)
		addConditionVars(rule.If, add)
		for j := range rule.Ranges {
			addConditionVars(rule.Ranges[j].If, add)
		}
	}
	if f.Scoring != nil {
		addConditionVars(f.Scoring.If, add)
		addMapRefs(f.Scoring.Result, add)
		addMapRefs(f.Scoring.Default, add)
		for _, dim := range f.Scoring.Dimensions {
			add(dim)
		}
		addNodeVars(f.Scoring.Ranges, add)
	}
	for _, p := range f.Params {
		addValueRef(p, add)
	}

	// own outputs never count as dependencies
	own := make(map[string]bool)
	for _, out := range collectOutputs(f) {
		own[out] = true
	}
	filtered := deps[:0]
	for _, d := range deps {
		if !own[d] {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func addConditionVars(c *types.Condition, add func(string)) {
	if c == nil {
		return
	}
	for _, child := range c.And {
		addConditionVars(child, add)
	}
	for _, child := range c.Or {
		addConditionVars(child, add)
	}
	if c.Var != "" {
		add(c.Var)
	}
	addValueRef(c.Value, add)
}

func addNodeVars(nodes []types.ScoringNode, add func(string)) {
	for i := range nodes {
		addConditionVars(nodes[i].If, add)
		addMapRefs(nodes[i].Fields, add)
		addNodeVars(nodes[i].Ranges, add)
	}
}

// addMapRefs records "$" references among a result map's values.
func addMapRefs(m map[string]any, add func(string)) {
	for _, v := range m {
		addValueRef(v, add)
	}
}

// addValueRef records "$" references on value positions (case results,
// condition targets, function parameters).
func addValueRef(v any, add func(string)) {
	if s, ok := v.(string); ok && types.IsReference(s) {
		add(s)
	}
}

func appendKeys(out []string, m map[string]any) []string {
	for k := range m {
		out = append(out, k)
	}
	return out
}
