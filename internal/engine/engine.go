// Package engine implements the formula dispatch engine: it owns the
// mutable evaluation context and interprets each formula kind against it.
package engine

import (
	"math"
	"sort"

	"github.com/quarterbit/formulary/internal/catalog"
	"github.com/quarterbit/formulary/internal/expr"
	"github.com/quarterbit/formulary/internal/types"
)

/*
 * Formula dispatch.
 *
 * Run walks formulas in the order handed to it (callers order via the
 * dependency resolver first) and applies each one to a single exclusively
 * owned context. Dispatch matches exhaustively on the kind tag; an invalid
 * tag is a structure fault, so adding a kind without teaching the
 * dispatcher fails loudly instead of silently skipping.
 *
 * Two invariants enforced here rather than per kind:
 *   - every failure is wrapped as FormulaError carrying the formula id.
 *   - "as" aliasing happens after the primary write, uniformly, so a newly
 *     added kind cannot forget it.
 *
 * There is no partial evaluation: the first failing formula aborts the run.
 */

// funcResultPrecision is the fixed tolerance applied to numeric results of
// function-call formulas before storage.
const funcResultPrecision = 6

// Options tunes an Engine.
type Options struct {
	// Precision is the decimal precision of expression rounding.
	// Zero selects expr.DefaultPrecision.
	Precision int
}

// Engine interprets formulas against a context. Safe for concurrent use:
// all mutable state lives in the per-run Context.
type Engine struct {
	funcs *catalog.Catalog
	eval  *expr.Evaluator
}

// New returns an engine calling into funcs for expressions and
// function-call formulas.
func New(funcs *catalog.Catalog, opts Options) *Engine {
	return &Engine{
		funcs: funcs,
		eval:  expr.New(funcs, opts.Precision),
	}
}

// Run evaluates formulas in the given order against a fresh context seeded
// with inputs, and returns the full output context.
func (e *Engine) Run(formulas []types.Formula, inputs map[string]any) (*types.Context, error) {
	ctx := types.NewContextFromInputs(inputs)
	for i := range formulas {
		if err := e.Apply(&formulas[i], ctx); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}

// Apply evaluates one formula and writes its result under the formula id
// and, when declared, the alias. Failures come back wrapped as
// FormulaError; the context is not written on failure.
func (e *Engine) Apply(f *types.Formula, ctx *types.Context) error {
	out, err := e.evalFormula(f, ctx)
	if err != nil {
		return &types.FormulaError{FormulaID: f.ID, Err: err}
	}
	ctx.Set(f.ID, out)
	if f.As != "" {
		ctx.Set(f.As, out)
	}
	return nil
}

func (e *Engine) evalFormula(f *types.Formula, ctx *types.Context) (any, error) {
	switch f.Kind() {
	case types.KindExpression:
		return e.evalExpression(f, ctx)
	case types.KindSwitch:
		value, ok := ctx.Get(f.Switch)
		return e.evalCases(f, boundSubject(value, ok), ctx)
	case types.KindConditions:
		return e.evalCases(f, noSubject(), ctx)
	case types.KindFunctionCall:
		return e.evalFunctionCall(f, ctx)
	case types.KindAccumulative:
		return e.evalAccumulative(f, ctx)
	case types.KindScoring:
		return e.evalScoring(f, ctx)
	default:
		return nil, &types.StructureError{FormulaID: f.ID, Reason: "formula kind not resolved (missing Normalize?)"}
	}
}

// evalExpression validates declared inputs are present, then delegates to
// the expression evaluator.
func (e *Engine) evalExpression(f *types.Formula, ctx *types.Context) (any, error) {
	for _, name := range f.Inputs {
		if !ctx.Has(name) {
			return nil, &types.UnresolvedVariableError{Name: name}
		}
	}
	return e.eval.Evaluate(f.Expression, ctx)
}

// evalCases serves both Switch and Conditions: first matching case wins,
// applying its auxiliary assignments before the result resolves; otherwise
// the default branch applies.
func (e *Engine) evalCases(f *types.Formula, sub subject, ctx *types.Context) (any, error) {
	for i := range f.When {
		c := &f.When[i]
		matched, err := evalCondition(c.If, sub, ctx)
		if err != nil {
			return nil, err
		}
		if matched {
			if err := e.applySetVars(c.SetVars, ctx); err != nil {
				return nil, err
			}
			return e.resolveValue(c.Result, ctx), nil
		}
	}
	if f.Default != nil {
		if err := e.applySetVars(f.Default.SetVars, ctx); err != nil {
			return nil, err
		}
		return e.resolveValue(f.Default.Result, ctx), nil
	}
	return nil, nil
}

// evalFunctionCall resolves positional parameters and delegates to the
// catalog. Numeric results are rounded to a fixed 6-decimal tolerance
// before storage.
func (e *Engine) evalFunctionCall(f *types.Formula, ctx *types.Context) (any, error) {
	args := make([]any, len(f.Params))
	for i, p := range f.Params {
		v, err := e.resolveParam(p, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	result, err := e.funcs.Call(f.Function, args)
	if err != nil {
		return nil, err
	}
	if n, ok := result.(float64); ok {
		p := math.Pow(10, funcResultPrecision)
		return math.Round(n*p) / p, nil
	}
	return result, nil
}

// resolveParam resolves one positional parameter: a sigil reference must
// resolve (absence is a hard fault), a bare name resolves when bound, and
// any other string is tried as an expression before falling back to a
// literal.
func (e *Engine) resolveParam(p any, ctx *types.Context) (any, error) {
	s, ok := p.(string)
	if !ok {
		return normalizeLiteral(p), nil
	}
	if types.IsReference(s) {
		v, found := ctx.Get(s)
		if !found {
			return nil, &types.UnresolvedVariableError{Name: types.CanonicalName(s)}
		}
		return v, nil
	}
	if v, found := ctx.Get(s); found {
		return v, nil
	}
	if n, err := e.eval.Evaluate(s, ctx); err == nil {
		return n, nil
	}
	return s, nil
}

// resolveValue resolves a case result or set_vars value: "$" references and
// bound bare names read from context, expression-looking strings evaluate,
// and everything else passes through as a literal.
func (e *Engine) resolveValue(raw any, ctx *types.Context) any {
	s, ok := raw.(string)
	if !ok {
		return normalizeLiteral(raw)
	}
	if types.IsReference(s) {
		if v, found := ctx.Get(s); found {
			return v
		}
		return nil
	}
	if v, found := ctx.Get(s); found {
		return v
	}
	if n, err := e.eval.Evaluate(s, ctx); err == nil {
		return n
	}
	return s
}

// applySetVars writes auxiliary assignments into context in sorted key
// order so dynamic outputs are deterministic.
func (e *Engine) applySetVars(vars map[string]any, ctx *types.Context) error {
	if len(vars) == 0 {
		return nil
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ctx.Set(k, e.resolveValue(vars[k], ctx))
	}
	return nil
}

// normalizeLiteral folds the integer shapes decoders produce into float64
// so stored values compare uniformly.
func normalizeLiteral(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
