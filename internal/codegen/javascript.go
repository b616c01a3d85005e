package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quarterbit/formulary/internal/types"
)

/*
 * JavaScript back end.
 *
 * Emits one self-contained function: the runtime helpers the interpreter
 * provides (context lookup, loose numeric coercion, epsilon comparison,
 * checked division, result rounding) are inlined as a preamble so the
 * output has no imports and no runtime dependency. Catalog functions map
 * to Math natives where one exists and to emitted helper closures
 * otherwise; a function with no mapping fails generation rather than
 * producing output that faults at call time.
 *
 * Known divergences from the interpreter, accepted as the cost of native
 * arithmetic: Math natives return NaN on domain faults where the catalog
 * raises, and a result string that looks like an expression is always
 * compiled as one (the interpreter falls back to the literal when
 * evaluation fails).
 */

// JavaScript renders a Program as a standalone evaluate function.
type JavaScript struct {
	// FunctionName overrides the emitted function name. Empty selects
	// "evaluate".
	FunctionName string
}

func (b *JavaScript) Target() string { return "javascript" }

// subjectRef is the rendered implicit left-hand side for condition leaves
// without a var: the access expression plus an optional presence guard.
type subjectRef struct {
	expr  string
	guard string
}

const jsPreamble = `  const _ref = (k, d) => (k in ctx ? ctx[k] : d);
  const _var = (k) => {
    if (!(k in ctx)) throw new Error("unresolved variable: " + k);
    return ctx[k];
  };
  const _num = (v) => (typeof v === "number" ? v : typeof v === "boolean" ? (v ? 1 : 0) : parseFloat(v));
  const _eq = (a, b) => {
    const x = _num(a), y = _num(b);
    if (!Number.isNaN(x) && !Number.isNaN(y)) return Math.abs(x - y) < 1e-9;
    if (typeof a === "boolean" || typeof b === "boolean") return Boolean(a) === Boolean(b);
    return String(a) === String(b);
  };
  const _ord = (a, b) => {
    const x = _num(a), y = _num(b);
    if (!Number.isNaN(x) && !Number.isNaN(y)) return Math.abs(x - y) < 1e-9 ? 0 : x < y ? -1 : 1;
    if (typeof a === "string" && typeof b === "string") return a < b ? -1 : a > b ? 1 : 0;
    return null;
  };
  const _gt = (a, b) => { const o = _ord(a, b); return o !== null && o > 0; };
  const _gte = (a, b) => { const o = _ord(a, b); return o !== null && o >= 0; };
  const _lt = (a, b) => { const o = _ord(a, b); return o !== null && o < 0; };
  const _lte = (a, b) => { const o = _ord(a, b); return o !== null && o <= 0; };
  const _between = (l, p) => Array.isArray(p) && p.length === 2 && _gte(l, p[0]) && _lte(l, p[1]);
  const _in = (l, s) => Array.isArray(s) && s.some((x) => _eq(l, x));
  const _contains = (l, t) => (Array.isArray(l) ? l.some((x) => _eq(x, t)) : String(l).includes(String(t)));
  const _starts = (l, t) => typeof l === "string" && l.startsWith(String(t));
  const _ends = (l, t) => typeof l === "string" && l.endsWith(String(t));
  const _div = (a, b) => {
    if (b === 0) throw new Error("division by zero");
    return a / b;
  };
  const _mod = (a, b) => {
    if (b === 0) throw new Error("modulo by zero");
    return a % b;
  };
  const _snap = (v, d) => {
    const p = Math.pow(10, d);
    const r = Math.round(v * p) / p;
    return Math.abs(v - r) < 1e-9 ? r : v;
  };
  const _round6 = (v) => (typeof v === "number" ? Math.round(v * 1e6) / 1e6 : v);
`

// jsMath maps catalog functions with a native equivalent.
var jsMath = map[string]string{
	"abs":   "Math.abs",
	"min":   "Math.min",
	"max":   "Math.max",
	"sqrt":  "Math.sqrt",
	"ceil":  "Math.ceil",
	"floor": "Math.floor",
	"pow":   "Math.pow",
	"log":   "Math.log",
	"exp":   "Math.exp",
	"sin":   "Math.sin",
	"cos":   "Math.cos",
	"tan":   "Math.tan",
}

// jsAggregates take their rendered arguments as one array.
var jsAggregates = map[string]bool{
	"sum":      true,
	"count":    true,
	"avg":      true,
	"median":   true,
	"variance": true,
	"stddev":   true,
}

// jsHelperOrder fixes emission order so output is deterministic.
var jsHelperOrder = []string{
	"round", "sum", "count", "avg", "median", "variance", "stddev",
	"percentage", "simple_interest", "compound_interest", "discount",
	"markup", "loan_payment", "clamp", "normalize", "coalesce",
	"default_if_null", "bmi", "age_from_date",
}

// jsHelperDeps lists helpers a helper itself calls.
var jsHelperDeps = map[string][]string{
	"avg":      {"sum"},
	"variance": {"avg"},
	"stddev":   {"variance"},
}

var jsHelperDefs = map[string]string{
	"round": `  const _round_to = (v, d) => {
    const p = Math.pow(10, d || 0);
    return Math.round(_num(v) * p) / p;
  };
`,
	"sum":   "  const _sum = (xs) => xs.reduce((a, x) => a + _num(x), 0);\n",
	"count": "  const _count = (xs) => xs.length;\n",
	"avg":   "  const _avg = (xs) => _sum(xs) / xs.length;\n",
	"median": `  const _median = (xs) => {
    const s = xs.map(_num).sort((a, b) => a - b);
    const m = Math.floor(s.length / 2);
    return s.length % 2 ? s[m] : (s[m - 1] + s[m]) / 2;
  };
`,
	"variance": `  const _variance = (xs) => {
    const m = _avg(xs);
    return xs.reduce((a, x) => a + (_num(x) - m) * (_num(x) - m), 0) / xs.length;
  };
`,
	"stddev":            "  const _stddev = (xs) => Math.sqrt(_variance(xs));\n",
	"percentage":        "  const _percentage = (v, p) => (_num(v) * _num(p)) / 100;\n",
	"simple_interest":   "  const _simple_interest = (p, r, n) => _num(p) * _num(r) * _num(n);\n",
	"compound_interest": "  const _compound_interest = (p, r, n) => _num(p) * Math.pow(1 + _num(r), _num(n)) - _num(p);\n",
	"discount":          "  const _discount = (v, p) => _num(v) * (1 - _num(p) / 100);\n",
	"markup":            "  const _markup = (v, p) => _num(v) * (1 + _num(p) / 100);\n",
	"loan_payment": `  const _loan_payment = (p, r, n) => {
    p = _num(p);
    r = _num(r);
    n = _num(n);
    if (n <= 0) throw new Error("loan_payment: periods must be positive");
    return r === 0 ? p / n : (p * r) / (1 - Math.pow(1 + r, -n));
  };
`,
	"clamp": `  const _clamp = (x, lo, hi) => {
    x = _num(x);
    lo = _num(lo);
    hi = _num(hi);
    if (lo > hi) throw new Error("clamp: bounds out of order");
    return x < lo ? lo : x > hi ? hi : x;
  };
`,
	"normalize": `  const _normalize = (x, lo, hi) => {
    if (_num(hi) === _num(lo)) throw new Error("normalize: degenerate range");
    return (_num(x) - _num(lo)) / (_num(hi) - _num(lo));
  };
`,
	"coalesce": `  const _coalesce = (...xs) => {
    for (const x of xs) {
      if (x !== null && x !== undefined && x !== "") return x;
    }
    return null;
  };
`,
	"default_if_null": "  const _default_if_null = (x, d) => (x === null || x === undefined || x === \"\" ? d : x);\n",
	"bmi": `  const _bmi = (w, h) => {
    h = _num(h);
    if (h <= 0) throw new Error("bmi: height must be positive");
    return _num(w) / (h * h);
  };
`,
	"age_from_date": `  const _age_from_date = (s) => {
    const birth = new Date(s + "T00:00:00Z");
    if (Number.isNaN(birth.getTime())) throw new Error("age_from_date: invalid date " + s);
    const now = new Date();
    let years = now.getUTCFullYear() - birth.getUTCFullYear();
    if (now.getUTCMonth() < birth.getUTCMonth() || (now.getUTCMonth() === birth.getUTCMonth() && now.getUTCDate() < birth.getUTCDate())) years--;
    return years;
  };
`,
}

type jsGen struct {
	out       strings.Builder
	indent    int
	used      map[string]bool
	formulaID string
}

func (b *JavaScript) Generate(p *Program) (string, error) {
	g := &jsGen{indent: 1, used: map[string]bool{}}
	for i := range p.Stmts {
		if i > 0 {
			g.blank()
		}
		if err := g.stmt(i, &p.Stmts[i]); err != nil {
			return "", err
		}
	}

	name := b.FunctionName
	if name == "" {
		name = "evaluate"
	}

	var out strings.Builder
	out.WriteString("// Code generated by formulary. DO NOT EDIT.\n")
	if len(p.Inputs) > 0 {
		fmt.Fprintf(&out, "// inputs: %s\n", strings.Join(p.Inputs, ", "))
	}
	fmt.Fprintf(&out, "function %s(inputs) {\n", name)
	out.WriteString("  const ctx = Object.assign({}, inputs);\n")
	out.WriteString(jsPreamble)
	for _, h := range jsHelperOrder {
		if g.used[h] {
			out.WriteString(jsHelperDefs[h])
		}
	}
	out.WriteString("\n")
	out.WriteString(g.out.String())
	out.WriteString("\n  return ctx;\n}\n")
	return out.String(), nil
}

func (g *jsGen) errf(format string, args ...any) error {
	return &types.CodegenError{FormulaID: g.formulaID, Target: "javascript", Reason: fmt.Sprintf(format, args...)}
}

func (g *jsGen) line(s string) {
	g.out.WriteString(strings.Repeat("  ", g.indent))
	g.out.WriteString(s)
	g.out.WriteString("\n")
}

func (g *jsGen) linef(format string, args ...any) {
	g.line(fmt.Sprintf(format, args...))
}

func (g *jsGen) blank() {
	g.out.WriteString("\n")
}

func (g *jsGen) use(name string) {
	if g.used[name] {
		return
	}
	g.used[name] = true
	for _, dep := range jsHelperDeps[name] {
		g.use(dep)
	}
}

func jsCtx(name string) string {
	return fmt.Sprintf("ctx[%s]", quoteString(types.CanonicalName(name)))
}

func jsGuard(name string) string {
	return fmt.Sprintf("%s in ctx", quoteString(types.CanonicalName(name)))
}

func (g *jsGen) stmt(i int, s *Stmt) error {
	f := &s.Formula
	g.formulaID = f.ID
	g.linef("// %s", f.ID)

	switch s.Kind {
	case StmtExpression:
		return g.stmtExpression(f)
	case StmtSwitch:
		sub := subjectRef{expr: jsCtx(f.Switch), guard: jsGuard(f.Switch)}
		return g.stmtCases(i, f, sub)
	case StmtConditions:
		return g.stmtCases(i, f, subjectRef{})
	case StmtCall:
		return g.stmtCall(f)
	case StmtAccumulate:
		return g.stmtAccumulate(i, f)
	case StmtScoring:
		return g.stmtScoring(i, f)
	default:
		return g.errf("unknown statement kind %d", s.Kind)
	}
}

func (g *jsGen) stmtExpression(f *types.Formula) error {
	if len(f.Inputs) > 0 {
		quoted := make([]string, len(f.Inputs))
		for i, in := range f.Inputs {
			quoted[i] = quoteString(types.CanonicalName(in))
		}
		g.linef("[%s].forEach(_var);", strings.Join(quoted, ", "))
	}
	tokens, err := scanExpression(f.Expression)
	if err != nil {
		return g.errf("%v", err)
	}
	node, err := parseExpression(tokens)
	if err != nil {
		return g.errf("%v", err)
	}
	rendered, err := g.expr(node)
	if err != nil {
		return err
	}
	g.linef("%s = _snap(%s, 10);", jsCtx(f.ID), rendered)
	g.alias(f)
	return nil
}

func (g *jsGen) stmtCases(i int, f *types.Formula, sub subjectRef) error {
	result := fmt.Sprintf("_r%d", i)
	g.linef("let %s = null;", result)
	for j := range f.When {
		c := &f.When[j]
		cond, err := g.cond(c.If, sub)
		if err != nil {
			return err
		}
		if j == 0 {
			g.linef("if %s {", cond)
		} else {
			g.linef("} else if %s {", cond)
		}
		g.indent++
		if err := g.setVars(c.SetVars); err != nil {
			return err
		}
		v, err := g.resolved(c.Result)
		if err != nil {
			return err
		}
		g.linef("%s = %s;", result, v)
		g.indent--
	}
	if f.Default != nil {
		if len(f.When) == 0 {
			g.line("{")
		} else {
			g.line("} else {")
		}
		g.indent++
		if err := g.setVars(f.Default.SetVars); err != nil {
			return err
		}
		v, err := g.resolved(f.Default.Result)
		if err != nil {
			return err
		}
		g.linef("%s = %s;", result, v)
		g.indent--
		g.line("}")
	} else if len(f.When) > 0 {
		g.line("}")
	}
	g.linef("%s = %s;", jsCtx(f.ID), result)
	g.aliasFrom(f, result)
	return nil
}

func (g *jsGen) stmtCall(f *types.Formula) error {
	args := make([]string, len(f.Params))
	for i, p := range f.Params {
		rendered, err := g.param(p)
		if err != nil {
			return err
		}
		args[i] = rendered
	}
	call, err := g.call(f.Function, args)
	if err != nil {
		return err
	}
	g.linef("%s = _round6(%s);", jsCtx(f.ID), call)
	g.alias(f)
	return nil
}

func (g *jsGen) stmtAccumulate(i int, f *types.Formula) error {
	total := fmt.Sprintf("_t%d", i)
	g.linef("let %s = 0;", total)
	for r := range f.Rules {
		rule := &f.Rules[r]
		sub := subjectRef{expr: jsCtx(rule.Var)}
		g.linef("if (%s) {", jsGuard(rule.Var))
		g.indent++

		if len(rule.Ranges) == 0 {
			cond, err := g.cond(rule.If, sub)
			if err != nil {
				return err
			}
			g.linef("if %s {", cond)
			g.indent++
			g.linef("%s += %s;", total, formatNumber(rule.Score))
			g.indent--
			g.line("}")
		} else {
			for j := range rule.Ranges {
				rg := &rule.Ranges[j]
				cond, err := g.cond(rg.If, sub)
				if err != nil {
					return err
				}
				if j == 0 {
					g.linef("if %s {", cond)
				} else {
					g.linef("} else if %s {", cond)
				}
				g.indent++
				g.linef("%s += %s;", total, formatNumber(rg.Score))
				if err := g.setVars(rg.SetVars); err != nil {
					return err
				}
				g.indent--
			}
			g.line("}")
		}

		g.indent--
		g.line("}")
	}
	g.linef("%s = %s;", jsCtx(f.ID), total)
	g.aliasFrom(f, total)
	return nil
}

func (g *jsGen) stmtScoring(i int, f *types.Formula) error {
	s := f.Scoring
	result := fmt.Sprintf("_r%d", i)
	fallback, err := g.scoringDefault(s)
	if err != nil {
		return err
	}

	if s.IsSimple() {
		cond, err := g.cond(s.If, subjectRef{})
		if err != nil {
			return err
		}
		g.linef("let %s = %s;", result, fallback)
		g.linef("if %s {", cond)
		g.indent++
		fields, err := g.resultFields(s.Result)
		if err != nil {
			return err
		}
		g.linef("%s = %s;", result, fields)
		g.indent--
		g.line("}")
		g.linef("%s = %s;", jsCtx(f.ID), result)
		g.aliasFrom(f, result)
		return nil
	}

	g.linef("let %s = null;", result)
	guards := make([]string, len(s.Dimensions))
	for j, dim := range s.Dimensions {
		guards[j] = jsGuard(dim)
	}
	g.linef("if (%s) {", strings.Join(guards, " && "))
	g.indent++
	if err := g.scoringNodes(s.Ranges, s.Dimensions, 0, result); err != nil {
		return err
	}
	g.indent--
	g.line("}")
	g.linef("if (%s === null) %s = %s;", result, result, fallback)
	g.linef("%s = %s;", jsCtx(f.ID), result)
	g.aliasFrom(f, result)
	return nil
}

// scoringNodes emits the matching chain for one tree level: the first
// matching branch either descends a level or resolves its terminal fields.
func (g *jsGen) scoringNodes(nodes []types.ScoringNode, dims []string, level int, result string) error {
	sub := subjectRef{expr: jsCtx(dims[level])}
	for i := range nodes {
		node := &nodes[i]
		cond, err := g.cond(node.If, sub)
		if err != nil {
			return err
		}
		if i == 0 {
			g.linef("if %s {", cond)
		} else {
			g.linef("} else if %s {", cond)
		}
		g.indent++
		if len(node.Ranges) > 0 && level+1 < len(dims) {
			if err := g.scoringNodes(node.Ranges, dims, level+1, result); err != nil {
				return err
			}
		} else {
			if err := g.setVars(node.SetVars); err != nil {
				return err
			}
			fields, err := g.resultFields(node.Fields)
			if err != nil {
				return err
			}
			g.linef("%s = %s;", result, fields)
		}
		g.indent--
	}
	if len(nodes) > 0 {
		g.line("}")
	}
	return nil
}

func (g *jsGen) scoringDefault(s *types.Scoring) (string, error) {
	if s.Default != nil {
		return g.resultFields(s.Default)
	}
	return `{ "score": 0 }`, nil
}

func (g *jsGen) alias(f *types.Formula) {
	g.aliasFrom(f, jsCtx(f.ID))
}

func (g *jsGen) aliasFrom(f *types.Formula, src string) {
	if f.As != "" {
		g.linef("%s = %s;", jsCtx(f.As), src)
	}
}

func (g *jsGen) setVars(vars map[string]any) error {
	for _, k := range sortedKeys(vars) {
		v, err := g.resolved(vars[k])
		if err != nil {
			return err
		}
		g.linef("%s = %s;", jsCtx(k), v)
	}
	return nil
}

// cond renders one condition tree as a boolean expression, presence guards
// included so an absent variable makes the clause false.
func (g *jsGen) cond(c *types.Condition, sub subjectRef) (string, error) {
	if c == nil {
		return "", g.errf("nil condition")
	}
	if children := c.And; len(children) > 0 {
		return g.condGroup(children, " && ", sub)
	}
	if children := c.Or; len(children) > 0 {
		return g.condGroup(children, " || ", sub)
	}

	var guards []string
	var left string
	switch {
	case c.Var != "":
		guards = append(guards, jsGuard(c.Var))
		left = jsCtx(c.Var)
	case sub.expr != "":
		if sub.guard != "" {
			guards = append(guards, sub.guard)
		}
		left = sub.expr
	default:
		return "", g.errf("condition leaf missing var")
	}

	right := ""
	if ref, ok := c.Value.(string); ok && types.IsReference(ref) {
		guards = append(guards, jsGuard(ref))
		right = jsCtx(ref)
	} else {
		right = g.value(c.Value)
	}

	cmp, err := g.comparison(c.Op, left, right)
	if err != nil {
		return "", err
	}
	return "(" + strings.Join(append(guards, cmp), " && ") + ")", nil
}

func (g *jsGen) condGroup(children []*types.Condition, sep string, sub subjectRef) (string, error) {
	parts := make([]string, len(children))
	for i, child := range children {
		rendered, err := g.cond(child, sub)
		if err != nil {
			return "", err
		}
		parts[i] = rendered
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (g *jsGen) comparison(op, left, right string) (string, error) {
	switch op {
	case "==":
		return fmt.Sprintf("_eq(%s, %s)", left, right), nil
	case "!=":
		return fmt.Sprintf("!_eq(%s, %s)", left, right), nil
	case ">":
		return fmt.Sprintf("_gt(%s, %s)", left, right), nil
	case ">=":
		return fmt.Sprintf("_gte(%s, %s)", left, right), nil
	case "<":
		return fmt.Sprintf("_lt(%s, %s)", left, right), nil
	case "<=":
		return fmt.Sprintf("_lte(%s, %s)", left, right), nil
	case "between":
		return fmt.Sprintf("_between(%s, %s)", left, right), nil
	case "in":
		return fmt.Sprintf("_in(%s, %s)", left, right), nil
	case "not_in":
		return fmt.Sprintf("!_in(%s, %s)", left, right), nil
	case "contains":
		return fmt.Sprintf("_contains(%s, %s)", left, right), nil
	case "starts_with":
		return fmt.Sprintf("_starts(%s, %s)", left, right), nil
	case "ends_with":
		return fmt.Sprintf("_ends(%s, %s)", left, right), nil
	default:
		return "", g.errf("unknown operator %q", op)
	}
}

// expr renders a parsed expression tree. Operands coerce through _num at
// every arithmetic site, mirroring the interpreter's substitution step.
func (g *jsGen) expr(n exprNode) (string, error) {
	switch node := n.(type) {
	case numNode:
		if _, err := strconv.ParseFloat(node.text, 64); err != nil {
			return "", g.errf("malformed number %q", node.text)
		}
		return node.text, nil
	case strNode:
		return quoteString(node.text), nil
	case varNode:
		return fmt.Sprintf("_var(%s)", quoteString(node.name)), nil
	case unaryNode:
		inner, err := g.expr(node.operand)
		if err != nil {
			return "", err
		}
		if node.op == "-" {
			return fmt.Sprintf("(-_num(%s))", inner), nil
		}
		return fmt.Sprintf("_num(%s)", inner), nil
	case binNode:
		left, err := g.expr(node.left)
		if err != nil {
			return "", err
		}
		right, err := g.expr(node.right)
		if err != nil {
			return "", err
		}
		switch node.op {
		case "+", "-", "*":
			return fmt.Sprintf("(_num(%s) %s _num(%s))", left, node.op, right), nil
		case "/":
			return fmt.Sprintf("_div(_num(%s), _num(%s))", left, right), nil
		case "%":
			return fmt.Sprintf("_mod(_num(%s), _num(%s))", left, right), nil
		case "**":
			return fmt.Sprintf("Math.pow(_num(%s), _num(%s))", left, right), nil
		default:
			return "", g.errf("unknown arithmetic operator %q", node.op)
		}
	case callNode:
		args := make([]string, len(node.args))
		for i, arg := range node.args {
			rendered, err := g.expr(arg)
			if err != nil {
				return "", err
			}
			args[i] = rendered
		}
		return g.call(node.name, args)
	default:
		return "", g.errf("unknown expression node %T", n)
	}
}

// call maps a catalog function onto its target-native form.
func (g *jsGen) call(name string, args []string) (string, error) {
	if native, ok := jsMath[name]; ok {
		for i, a := range args {
			args[i] = fmt.Sprintf("_num(%s)", a)
		}
		return fmt.Sprintf("%s(%s)", native, strings.Join(args, ", ")), nil
	}
	if name == "round" {
		g.use("round")
		return fmt.Sprintf("_round_to(%s)", strings.Join(args, ", ")), nil
	}
	if jsAggregates[name] {
		g.use(name)
		return fmt.Sprintf("_%s([%s])", name, strings.Join(args, ", ")), nil
	}
	if _, ok := jsHelperDefs[name]; ok {
		g.use(name)
		return fmt.Sprintf("_%s(%s)", name, strings.Join(args, ", ")), nil
	}
	return "", g.errf("function %q has no javascript mapping", name)
}

// resolved renders a case result or set_vars value the way the dispatch
// engine resolves it: references and bound names read from context,
// expression strings compile, everything else is a literal.
func (g *jsGen) resolved(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return g.value(raw), nil
	}
	if types.IsReference(s) {
		return fmt.Sprintf("_ref(%s, null)", quoteString(types.CanonicalName(s))), nil
	}
	return g.resolvedString(s)
}

// param renders a positional function-call parameter. Unlike resolved, an
// absent reference is a hard fault.
func (g *jsGen) param(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return g.value(raw), nil
	}
	if types.IsReference(s) {
		return fmt.Sprintf("_var(%s)", quoteString(types.CanonicalName(s))), nil
	}
	return g.resolvedString(s)
}

func (g *jsGen) resolvedString(s string) (string, error) {
	tokens, err := scanExpression(s)
	if err != nil {
		return quoteString(s), nil
	}
	if len(tokens) == 1 {
		t := tokens[0]
		if t.kind == exprNumber {
			if f, err := strconv.ParseFloat(t.text, 64); err == nil {
				return formatNumber(f), nil
			}
			return quoteString(s), nil
		}
		if t.kind == exprIdent {
			return fmt.Sprintf("_ref(%s, %s)", quoteString(t.text), quoteString(s)), nil
		}
	}
	if isExpressionText(s) {
		node, err := parseExpression(tokens)
		if err != nil {
			return quoteString(s), nil
		}
		rendered, err := g.expr(node)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("_snap(%s, 10)", rendered), nil
	}
	return quoteString(s), nil
}

// resultFields renders a structured scoring result: only "$" references
// resolve, other values stay literal.
func (g *jsGen) resultFields(fields map[string]any) (string, error) {
	if len(fields) == 0 {
		return "{}", nil
	}
	parts := make([]string, 0, len(fields))
	for _, k := range sortedKeys(fields) {
		v := fields[k]
		rendered := ""
		if ref, ok := v.(string); ok && types.IsReference(ref) {
			rendered = fmt.Sprintf("_ref(%s, null)", quoteString(types.CanonicalName(ref)))
		} else {
			rendered = g.value(v)
		}
		parts = append(parts, fmt.Sprintf("%s: %s", quoteString(k), rendered))
	}
	return "{ " + strings.Join(parts, ", ") + " }", nil
}

// value renders a plain literal.
func (g *jsGen) value(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case string:
		return quoteString(x)
	case float64:
		return formatNumber(x)
	case float32:
		return formatNumber(float64(x))
	case int:
		return formatNumber(float64(x))
	case int64:
		return formatNumber(float64(x))
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = g.value(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		parts := make([]string, 0, len(x))
		for _, k := range sortedKeys(x) {
			parts = append(parts, fmt.Sprintf("%s: %s", quoteString(k), g.value(x[k])))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		return quoteString(fmt.Sprintf("%v", v))
	}
}
