package engine

import (
	"github.com/quarterbit/formulary/internal/types"
)

// evalAccumulative sums per-rule range scores into a running total.
// A rule whose variable is absent from context is skipped, not an error:
// accumulative scoring tolerates sparse inputs. Within a rule the first
// matching range wins and may apply auxiliary assignments.
func (e *Engine) evalAccumulative(f *types.Formula, ctx *types.Context) (any, error) {
	total := 0.0
	for i := range f.Rules {
		rule := &f.Rules[i]
		value, ok := ctx.Get(rule.Var)
		if !ok {
			continue
		}
		sub := boundSubject(value, true)

		if len(rule.Ranges) == 0 {
			// single-guard form
			matched, err := evalCondition(rule.If, sub, ctx)
			if err != nil {
				return nil, err
			}
			if matched {
				total += rule.Score
			}
			continue
		}

		for j := range rule.Ranges {
			rg := &rule.Ranges[j]
			matched, err := evalCondition(rg.If, sub, ctx)
			if err != nil {
				return nil, err
			}
			if matched {
				total += rg.Score
				if err := e.applySetVars(rg.SetVars, ctx); err != nil {
					return nil, err
				}
				break
			}
		}
	}
	return total, nil
}
