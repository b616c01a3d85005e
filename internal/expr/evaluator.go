// Package expr implements the arithmetic expression evaluator.
package expr

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/quarterbit/formulary/internal/types"
)

/*
 * Expression evaluation pipeline.
 *
 * Evaluate runs a fixed sequence over one expression string:
 *   1. Reject operators that belong to condition trees (&&, ||, ternary,
 *      strict equality). Arithmetic expressions carry none of them.
 *   2. Substitute variable references with current context values. Both
 *      sigil ($income) and bare (income) forms resolve to the same slot.
 *      Substitution scans whole identifiers, which subsumes the
 *      longest-match-first requirement: "rate" never matches inside
 *      "exchange_rate". An identifier followed by "(" is a function name
 *      and is left alone.
 *   3. Resolve function calls innermost-first against the catalog,
 *      re-scanning until no calls remain. The pass count is bounded so
 *      malformed text cannot loop forever.
 *   4-7. Tokenize the now-numeric text, disambiguate unary sign via
 *      lookback, convert to postfix (shunting-yard), evaluate on an
 *      operand stack. See token.go and postfix.go.
 *
 * A final bounded-precision rounding pass suppresses binary floating-point
 * noise (0.1+0.2 -> 0.3) without masking genuine fractional results: the
 * rounded value is kept only when it sits within a small absolute threshold
 * of the raw result.
 */

// DefaultPrecision is the decimal precision of the final rounding pass.
const DefaultPrecision = 10

// roundSnapThreshold bounds how far rounding may move a result before the
// raw value is kept instead.
const roundSnapThreshold = 1e-9

// maxFunctionPasses bounds the function-resolution loop.
const maxFunctionPasses = 32

// disallowedOperators never appear in arithmetic expressions; they are the
// condition tree's vocabulary.
var disallowedOperators = []string{"&&", "||", "===", "!==", "?"}

// Catalog is the function-call capability the evaluator consumes. Handlers
// are pure; the evaluator never hands them context access.
type Catalog interface {
	Call(name string, args []any) (any, error)
}

// Evaluator compiles and evaluates arithmetic expression strings against a
// variable context. Safe for concurrent use as long as the catalog is.
type Evaluator struct {
	funcs     Catalog
	precision int
}

// New returns an evaluator delegating function calls to funcs.
// A non-positive precision selects DefaultPrecision.
func New(funcs Catalog, precision int) *Evaluator {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return &Evaluator{funcs: funcs, precision: precision}
}

// Evaluate computes the value of text against ctx.
func (e *Evaluator) Evaluate(text string, ctx *types.Context) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, &types.ExpressionError{Expr: text, Reason: "empty expression"}
	}
	for _, op := range disallowedOperators {
		if strings.Contains(trimmed, op) {
			return 0, &types.ExpressionError{Expr: text, Reason: "operator " + strconv.Quote(op) + " not allowed", Err: types.ErrDisallowedOperator}
		}
	}

	substituted, err := substituteVariables(trimmed, ctx)
	if err != nil {
		return 0, wrapExprErr(text, err)
	}

	resolved, err := e.resolveFunctions(substituted)
	if err != nil {
		return 0, wrapExprErr(text, err)
	}

	result, err := evalArithmetic(resolved)
	if err != nil {
		return 0, wrapExprErr(text, err)
	}

	return RoundPrecision(result, e.precision), nil
}

// wrapExprErr attaches the original expression text to faults raised deeper
// in the pipeline, unless they already carry it.
func wrapExprErr(text string, err error) error {
	switch err.(type) {
	case *types.ExpressionError, *types.UnresolvedVariableError, *types.UnknownFunctionError:
		return err
	default:
		return &types.ExpressionError{Expr: text, Reason: "evaluation failed", Err: err}
	}
}

// substituteVariables replaces every identifier bound in ctx with its
// formatted value. Quoted literals pass through untouched. Unbound
// identifiers stay in place; the tokenizer reports
// them as unresolved if function resolution does not consume them.
func substituteVariables(text string, ctx *types.Context) (string, error) {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		c := text[i]
		if c == '"' {
			start := i
			i++
			for i < len(text) && text[i] != '"' {
				i++
			}
			if i < len(text) {
				i++
			}
			b.WriteString(text[start:i])
			continue
		}
		if !isIdentStart(c) {
			b.WriteByte(c)
			i++
			continue
		}

		start := i
		if c == '$' {
			i++
		}
		for i < len(text) && isIdentByte(text[i]) {
			i++
		}
		ident := text[start:i]

		// a name directly followed by "(" is a function call, not a variable
		if nextNonSpaceIs(text, i, '(') {
			b.WriteString(ident)
			continue
		}

		value, ok := ctx.Get(ident)
		if !ok {
			b.WriteString(ident)
			continue
		}
		formatted, err := formatOperand(ident, value)
		if err != nil {
			return "", err
		}
		b.WriteString(formatted)
	}

	return b.String(), nil
}

// Identifiers returns the variable identifiers referenced by expression
// text, canonicalized and deduplicated in first-use order. A name directly
// followed by "(" is a function call and is excluded. Exposed for the
// dependency resolver's static analysis.
func Identifiers(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < len(text); {
		if text[i] == '"' {
			i++
			for i < len(text) && text[i] != '"' {
				i++
			}
			i++
			continue
		}
		if !isIdentStart(text[i]) {
			i++
			continue
		}
		start := i
		if text[i] == '$' {
			i++
		}
		for i < len(text) && isIdentByte(text[i]) {
			i++
		}
		if nextNonSpaceIs(text, i, '(') {
			continue
		}
		name := types.CanonicalName(text[start:i])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// formatOperand renders a context value as expression text. Non-numeric
// strings become quoted literals so they survive until function-argument
// parsing; anything else non-numeric is a hard fault.
func formatOperand(name string, v any) (string, error) {
	if s, ok := v.(string); ok {
		if _, numeric := types.ToNumber(s); !numeric {
			return strconv.Quote(s), nil
		}
	}
	n, ok := types.ToNumber(v)
	if !ok {
		return "", &types.ExpressionError{Expr: name, Reason: "variable is not numeric"}
	}
	return strconv.FormatFloat(n, 'f', -1, 64), nil
}

// functionCallPattern matches an innermost call: a name followed by a
// parenthesized argument list containing no nested parentheses.
var functionCallPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\(([^()]*)\)`)

// resolveFunctions repeatedly replaces innermost function calls with their
// computed values until none remain. Bounded at maxFunctionPasses so
// malformed recursive text terminates.
func (e *Evaluator) resolveFunctions(text string) (string, error) {
	for pass := 0; pass < maxFunctionPasses; pass++ {
		loc := functionCallPattern.FindStringSubmatchIndex(text)
		if loc == nil {
			return text, nil
		}
		name := text[loc[2]:loc[3]]
		rawArgs := text[loc[4]:loc[5]]

		args, err := parseArguments(rawArgs)
		if err != nil {
			return "", err
		}
		if e.funcs == nil {
			return "", &types.UnknownFunctionError{Name: name}
		}
		result, err := e.funcs.Call(name, args)
		if err != nil {
			return "", err
		}
		n, ok := types.ToNumber(result)
		if !ok {
			return "", &types.ExpressionError{Expr: text, Reason: "function " + name + " returned a non-numeric value"}
		}
		text = text[:loc[0]] + strconv.FormatFloat(n, 'f', -1, 64) + text[loc[1]:]
	}
	return "", &types.ExpressionError{Expr: text, Reason: "function resolution did not converge"}
}

// parseArguments evaluates a comma-separated argument list. Quoted segments
// pass through as strings; everything else is arithmetic. Commas inside
// quoted segments do not split.
func parseArguments(raw string) ([]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := splitArguments(raw)
	args := make([]any, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if len(part) >= 2 && (part[0] == '"' || part[0] == '\'') && part[len(part)-1] == part[0] {
			args = append(args, part[1:len(part)-1])
			continue
		}
		n, err := evalArithmetic(part)
		if err != nil {
			return nil, err
		}
		args = append(args, n)
	}
	return args, nil
}

// splitArguments splits an argument list on top-level commas, leaving
// commas inside single- or double-quoted segments alone.
func splitArguments(raw string) []string {
	var parts []string
	var quote byte
	start := 0
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ',':
			parts = append(parts, raw[start:i])
			start = i + 1
		}
	}
	return append(parts, raw[start:])
}

// evalArithmetic runs the numeric tail of the pipeline: tokenize, postfix
// conversion, stack evaluation.
func evalArithmetic(text string) (float64, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return 0, err
	}
	postfix, err := toPostfix(tokens, text)
	if err != nil {
		return 0, err
	}
	return evalPostfix(postfix, text)
}

// RoundPrecision rounds v to the given number of decimal digits, keeping
// the rounded value only when it differs from v by less than the snap
// threshold. Exposed for the dispatch engine's fixed-tolerance result
// rounding.
func RoundPrecision(v float64, digits int) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	p := math.Pow(10, float64(digits))
	r := math.Round(v*p) / p
	if math.Abs(v-r) < roundSnapThreshold {
		return r
	}
	return v
}

func isIdentStart(c byte) bool {
	return c == '$' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func nextNonSpaceIs(text string, i int, want byte) bool {
	for ; i < len(text); i++ {
		if text[i] == ' ' || text[i] == '\t' {
			continue
		}
		return text[i] == want
	}
	return false
}
