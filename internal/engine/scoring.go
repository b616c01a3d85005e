package engine

import (
	"github.com/quarterbit/formulary/internal/types"
)

/*
 * Scoring formula evaluation.
 *
 * Simple form: one condition tree, one structured result (or the declared
 * default when the condition does not hold).
 *
 * Multi-dimensional form: the tree is walked level by level, each level
 * keyed by the next declared dimension variable. The first branch matching
 * the dimension value is taken; a branch with nested ranges descends, a
 * terminal branch's fields become the structured result (control keys
 * stripped at decode time) and its set_vars apply to context. Any missing
 * dimension variable short-circuits to the zero-score default before the
 * walk starts.
 */

// zeroScore is the result when a dimension is missing or no branch matches
// and the configuration declares no default.
func zeroScore() map[string]any {
	return map[string]any{"score": 0.0}
}

func (e *Engine) evalScoring(f *types.Formula, ctx *types.Context) (any, error) {
	s := f.Scoring
	if s.IsSimple() {
		return e.evalSimpleScoring(s, ctx)
	}
	return e.evalTreeScoring(s, ctx)
}

func (e *Engine) evalSimpleScoring(s *types.Scoring, ctx *types.Context) (any, error) {
	matched, err := evalCondition(s.If, noSubject(), ctx)
	if err != nil {
		return nil, err
	}
	if matched {
		return e.resolveResultFields(s.Result, ctx), nil
	}
	if s.Default != nil {
		return e.resolveResultFields(s.Default, ctx), nil
	}
	return zeroScore(), nil
}

func (e *Engine) evalTreeScoring(s *types.Scoring, ctx *types.Context) (any, error) {
	values := make([]any, len(s.Dimensions))
	for i, dim := range s.Dimensions {
		v, ok := ctx.Get(dim)
		if !ok {
			return e.scoringDefault(s, ctx), nil
		}
		values[i] = v
	}

	nodes := s.Ranges
	for level := 0; level < len(values); level++ {
		node, err := matchScoringNode(nodes, values[level], ctx)
		if err != nil {
			return nil, err
		}
		if node == nil {
			return e.scoringDefault(s, ctx), nil
		}
		if len(node.Ranges) > 0 && level+1 < len(values) {
			nodes = node.Ranges
			continue
		}
		if err := e.applySetVars(node.SetVars, ctx); err != nil {
			return nil, err
		}
		return e.resolveResultFields(node.Fields, ctx), nil
	}
	return e.scoringDefault(s, ctx), nil
}

// matchScoringNode returns the first branch whose condition holds for the
// dimension value.
func matchScoringNode(nodes []types.ScoringNode, value any, ctx *types.Context) (*types.ScoringNode, error) {
	sub := boundSubject(value, true)
	for i := range nodes {
		matched, err := evalCondition(nodes[i].If, sub, ctx)
		if err != nil {
			return nil, err
		}
		if matched {
			return &nodes[i], nil
		}
	}
	return nil, nil
}

func (e *Engine) scoringDefault(s *types.Scoring, ctx *types.Context) map[string]any {
	if s.Default != nil {
		return e.resolveResultFields(s.Default, ctx)
	}
	return zeroScore()
}

// resolveResultFields copies a structured result, resolving "$" references
// and normalizing numeric shapes; the source map in the configuration is
// never mutated.
func (e *Engine) resolveResultFields(fields map[string]any, ctx *types.Context) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if ref, ok := v.(string); ok && types.IsReference(ref) {
			if resolved, found := ctx.Get(ref); found {
				out[k] = resolved
				continue
			}
			out[k] = nil
			continue
		}
		out[k] = normalizeLiteral(v)
	}
	return out
}
