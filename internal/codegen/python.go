package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quarterbit/formulary/internal/types"
)

/*
 * Python back end.
 *
 * Same shape as the JavaScript one: a single function with the runtime
 * helpers nested inside it, so the output imports nothing beyond the
 * standard library. Rounding goes through a half-away-from-zero helper
 * because Python's builtin round is banker's rounding, and "%" renders as
 * math.fmod so remainders keep the dividend's sign.
 */

// Python renders a Program as a standalone evaluate function.
type Python struct {
	// FunctionName overrides the emitted function name. Empty selects
	// "evaluate".
	FunctionName string
}

func (b *Python) Target() string { return "python" }

const pyPreamble = `    ctx = dict(inputs)

    def _ref(k, d=None):
        return ctx[k] if k in ctx else d

    def _var(k):
        if k not in ctx:
            raise KeyError("unresolved variable: " + k)
        return ctx[k]

    def _num(v):
        if isinstance(v, bool):
            return 1.0 if v else 0.0
        try:
            return float(v)
        except (TypeError, ValueError):
            return float("nan")

    def _eq(a, b):
        x, y = _num(a), _num(b)
        if x == x and y == y:
            return abs(x - y) < 1e-9
        if isinstance(a, bool) or isinstance(b, bool):
            return bool(a) == bool(b)
        return str(a) == str(b)

    def _ord(a, b):
        x, y = _num(a), _num(b)
        if x == x and y == y:
            if abs(x - y) < 1e-9:
                return 0
            return -1 if x < y else 1
        if isinstance(a, str) and isinstance(b, str):
            return -1 if a < b else (1 if a > b else 0)
        return None

    def _gt(a, b):
        o = _ord(a, b)
        return o is not None and o > 0

    def _gte(a, b):
        o = _ord(a, b)
        return o is not None and o >= 0

    def _lt(a, b):
        o = _ord(a, b)
        return o is not None and o < 0

    def _lte(a, b):
        o = _ord(a, b)
        return o is not None and o <= 0

    def _between(l, p):
        return isinstance(p, list) and len(p) == 2 and _gte(l, p[0]) and _lte(l, p[1])

    def _in(l, s):
        return isinstance(s, list) and any(_eq(l, x) for x in s)

    def _contains(l, t):
        if isinstance(l, list):
            return any(_eq(x, t) for x in l)
        return str(t) in str(l)

    def _starts(l, t):
        return isinstance(l, str) and l.startswith(str(t))

    def _ends(l, t):
        return isinstance(l, str) and l.endswith(str(t))

    def _div(a, b):
        if b == 0:
            raise ZeroDivisionError("division by zero")
        return a / b

    def _mod(a, b):
        if b == 0:
            raise ZeroDivisionError("modulo by zero")
        return math.fmod(a, b)

    def _half(v):
        return math.floor(v + 0.5) if v >= 0 else math.ceil(v - 0.5)

    def _snap(v, d):
        p = 10.0 ** d
        r = _half(v * p) / p
        return r if abs(v - r) < 1e-9 else v

    def _round6(v):
        if isinstance(v, bool) or not isinstance(v, (int, float)):
            return v
        return _half(v * 1e6) / 1e6
`

// pyMath maps catalog functions whose native form already returns a float.
var pyMath = map[string]string{
	"abs":  "abs",
	"min":  "min",
	"max":  "max",
	"sqrt": "math.sqrt",
	"pow":  "math.pow",
	"log":  "math.log",
	"exp":  "math.exp",
	"sin":  "math.sin",
	"cos":  "math.cos",
	"tan":  "math.tan",
}

var pyAggregates = map[string]bool{
	"sum":      true,
	"count":    true,
	"avg":      true,
	"median":   true,
	"variance": true,
	"stddev":   true,
}

var pyHelperOrder = []string{
	"ceil", "floor", "round", "sum", "count", "avg", "median", "variance",
	"stddev", "percentage", "simple_interest", "compound_interest",
	"discount", "markup", "loan_payment", "clamp", "normalize", "coalesce",
	"default_if_null", "bmi", "age_from_date",
}

var pyHelperDeps = map[string][]string{
	"avg":      {"sum"},
	"variance": {"avg"},
	"stddev":   {"variance"},
}

var pyHelperDefs = map[string]string{
	"ceil": `    def _ceil(x):
        return float(math.ceil(_num(x)))
`,
	"floor": `    def _floor(x):
        return float(math.floor(_num(x)))
`,
	"round": `    def _round_to(v, d=0):
        p = 10.0 ** d
        return _half(_num(v) * p) / p
`,
	"sum": `    def _sum(xs):
        return sum(_num(x) for x in xs)
`,
	"count": `    def _count(xs):
        return float(len(xs))
`,
	"avg": `    def _avg(xs):
        return _sum(xs) / len(xs)
`,
	"median": `    def _median(xs):
        s = sorted(_num(x) for x in xs)
        m = len(s) // 2
        return s[m] if len(s) % 2 else (s[m - 1] + s[m]) / 2
`,
	"variance": `    def _variance(xs):
        m = _avg(xs)
        return sum((_num(x) - m) ** 2 for x in xs) / len(xs)
`,
	"stddev": `    def _stddev(xs):
        return math.sqrt(_variance(xs))
`,
	"percentage": `    def _percentage(v, p):
        return _num(v) * _num(p) / 100
`,
	"simple_interest": `    def _simple_interest(p, r, n):
        return _num(p) * _num(r) * _num(n)
`,
	"compound_interest": `    def _compound_interest(p, r, n):
        return _num(p) * math.pow(1 + _num(r), _num(n)) - _num(p)
`,
	"discount": `    def _discount(v, p):
        return _num(v) * (1 - _num(p) / 100)
`,
	"markup": `    def _markup(v, p):
        return _num(v) * (1 + _num(p) / 100)
`,
	"loan_payment": `    def _loan_payment(p, r, n):
        p, r, n = _num(p), _num(r), _num(n)
        if n <= 0:
            raise ValueError("loan_payment: periods must be positive")
        if r == 0:
            return p / n
        return p * r / (1 - math.pow(1 + r, -n))
`,
	"clamp": `    def _clamp(x, lo, hi):
        x, lo, hi = _num(x), _num(lo), _num(hi)
        if lo > hi:
            raise ValueError("clamp: bounds out of order")
        return lo if x < lo else (hi if x > hi else x)
`,
	"normalize": `    def _normalize(x, lo, hi):
        x, lo, hi = _num(x), _num(lo), _num(hi)
        if hi == lo:
            raise ZeroDivisionError("normalize: degenerate range")
        return (x - lo) / (hi - lo)
`,
	"coalesce": `    def _coalesce(*xs):
        for x in xs:
            if x is not None and x != "":
                return x
        return None
`,
	"default_if_null": `    def _default_if_null(x, d):
        return d if x is None or x == "" else x
`,
	"bmi": `    def _bmi(w, h):
        h = _num(h)
        if h <= 0:
            raise ValueError("bmi: height must be positive")
        return _num(w) / (h * h)
`,
	"age_from_date": `    def _age_from_date(s):
        birth = datetime.date.fromisoformat(s)
        today = datetime.date.today()
        years = today.year - birth.year
        if (today.month, today.day) < (birth.month, birth.day):
            years -= 1
        if years < 0:
            raise ValueError("age_from_date: date is in the future")
        return float(years)
`,
}

type pyGen struct {
	out       strings.Builder
	indent    int
	used      map[string]bool
	formulaID string
}

func (b *Python) Generate(p *Program) (string, error) {
	g := &pyGen{indent: 1, used: map[string]bool{}}
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
	out.WriteString("# Code generated by formulary. DO NOT EDIT.\n")
	if len(p.Inputs) > 0 {
		fmt.Fprintf(&out, "# inputs: %s\n", strings.Join(p.Inputs, ", "))
	}
	out.WriteString("\n\n")
	fmt.Fprintf(&out, "def %s(inputs):\n", name)
	out.WriteString("    import math\n")
	if g.used["age_from_date"] {
		out.WriteString("    import datetime\n")
	}
	out.WriteString("\n")
	out.WriteString(pyPreamble)
	for _, h := range pyHelperOrder {
		if g.used[h] {
			out.WriteString("\n")
			out.WriteString(pyHelperDefs[h])
		}
	}
	out.WriteString("\n")
	out.WriteString(g.out.String())
	out.WriteString("\n    return ctx\n")
	return out.String(), nil
}

func (g *pyGen) errf(format string, args ...any) error {
	return &types.CodegenError{FormulaID: g.formulaID, Target: "python", Reason: fmt.Sprintf(format, args...)}
}

func (g *pyGen) line(s string) {
	g.out.WriteString(strings.Repeat("    ", g.indent))
	g.out.WriteString(s)
	g.out.WriteString("\n")
}

func (g *pyGen) linef(format string, args ...any) {
	g.line(fmt.Sprintf(format, args...))
}

func (g *pyGen) blank() {
	g.out.WriteString("\n")
}

func (g *pyGen) use(name string) {
	if g.used[name] {
		return
	}
	g.used[name] = true
	for _, dep := range pyHelperDeps[name] {
		g.use(dep)
	}
}

func pyCtx(name string) string {
	return fmt.Sprintf("ctx[%s]", quoteString(types.CanonicalName(name)))
}

func pyGuard(name string) string {
	return fmt.Sprintf("%s in ctx", quoteString(types.CanonicalName(name)))
}

func (g *pyGen) stmt(i int, s *Stmt) error {
	f := &s.Formula
	g.formulaID = f.ID
	g.linef("# %s", f.ID)

	switch s.Kind {
	case StmtExpression:
		return g.stmtExpression(f)
	case StmtSwitch:
		sub := subjectRef{expr: pyCtx(f.Switch), guard: pyGuard(f.Switch)}
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

func (g *pyGen) stmtExpression(f *types.Formula) error {
	if len(f.Inputs) > 0 {
		quoted := make([]string, len(f.Inputs))
		for i, in := range f.Inputs {
			quoted[i] = quoteString(types.CanonicalName(in))
		}
		g.linef("for _k in [%s]:", strings.Join(quoted, ", "))
		g.indent++
		g.line("_var(_k)")
		g.indent--
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
	g.linef("%s = _snap(%s, 10)", pyCtx(f.ID), rendered)
	g.alias(f)
	return nil
}

func (g *pyGen) stmtCases(i int, f *types.Formula, sub subjectRef) error {
	result := fmt.Sprintf("_r%d", i)
	g.linef("%s = None", result)

	emitCase := func(c *types.Case) error {
		g.indent++
		defer func() { g.indent-- }()
		if err := g.setVars(c.SetVars); err != nil {
			return err
		}
		v, err := g.resolved(c.Result)
		if err != nil {
			return err
		}
		g.linef("%s = %s", result, v)
		return nil
	}

	for j := range f.When {
		c := &f.When[j]
		cond, err := g.cond(c.If, sub)
		if err != nil {
			return err
		}
		if j == 0 {
			g.linef("if %s:", cond)
		} else {
			g.linef("elif %s:", cond)
		}
		if err := emitCase(c); err != nil {
			return err
		}
	}
	if f.Default != nil {
		if len(f.When) == 0 {
			// no branches to fall out of; the default applies directly
			if err := g.setVars(f.Default.SetVars); err != nil {
				return err
			}
			v, err := g.resolved(f.Default.Result)
			if err != nil {
				return err
			}
			g.linef("%s = %s", result, v)
		} else {
			g.line("else:")
			if err := emitCase(f.Default); err != nil {
				return err
			}
		}
	}
	g.linef("%s = %s", pyCtx(f.ID), result)
	g.aliasFrom(f, result)
	return nil
}

func (g *pyGen) stmtCall(f *types.Formula) error {
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
	g.linef("%s = _round6(%s)", pyCtx(f.ID), call)
	g.alias(f)
	return nil
}

func (g *pyGen) stmtAccumulate(i int, f *types.Formula) error {
	total := fmt.Sprintf("_t%d", i)
	g.linef("%s = 0.0", total)
	for r := range f.Rules {
		rule := &f.Rules[r]
		sub := subjectRef{expr: pyCtx(rule.Var)}
		g.linef("if %s:", pyGuard(rule.Var))
		g.indent++

		if len(rule.Ranges) == 0 {
			cond, err := g.cond(rule.If, sub)
			if err != nil {
				return err
			}
			g.linef("if %s:", cond)
			g.indent++
			g.linef("%s += %s", total, formatNumber(rule.Score))
			g.indent--
		} else {
			for j := range rule.Ranges {
				rg := &rule.Ranges[j]
				cond, err := g.cond(rg.If, sub)
				if err != nil {
					return err
				}
				if j == 0 {
					g.linef("if %s:", cond)
				} else {
					g.linef("elif %s:", cond)
				}
				g.indent++
				g.linef("%s += %s", total, formatNumber(rg.Score))
				if err := g.setVars(rg.SetVars); err != nil {
					return err
				}
				g.indent--
			}
		}

		g.indent--
	}
	g.linef("%s = %s", pyCtx(f.ID), total)
	g.aliasFrom(f, total)
	return nil
}

func (g *pyGen) stmtScoring(i int, f *types.Formula) error {
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
		g.linef("%s = %s", result, fallback)
		g.linef("if %s:", cond)
		g.indent++
		fields, err := g.resultFields(s.Result)
		if err != nil {
			return err
		}
		g.linef("%s = %s", result, fields)
		g.indent--
		g.linef("%s = %s", pyCtx(f.ID), result)
		g.aliasFrom(f, result)
		return nil
	}

	g.linef("%s = None", result)
	if len(s.Ranges) > 0 {
		guards := make([]string, len(s.Dimensions))
		for j, dim := range s.Dimensions {
			guards[j] = pyGuard(dim)
		}
		g.linef("if %s:", strings.Join(guards, " and "))
		g.indent++
		if err := g.scoringNodes(s.Ranges, s.Dimensions, 0, result); err != nil {
			return err
		}
		g.indent--
	}
	g.linef("if %s is None:", result)
	g.indent++
	g.linef("%s = %s", result, fallback)
	g.indent--
	g.linef("%s = %s", pyCtx(f.ID), result)
	g.aliasFrom(f, result)
	return nil
}

func (g *pyGen) scoringNodes(nodes []types.ScoringNode, dims []string, level int, result string) error {
	sub := subjectRef{expr: pyCtx(dims[level])}
	for i := range nodes {
		node := &nodes[i]
		cond, err := g.cond(node.If, sub)
		if err != nil {
			return err
		}
		if i == 0 {
			g.linef("if %s:", cond)
		} else {
			g.linef("elif %s:", cond)
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
			g.linef("%s = %s", result, fields)
		}
		g.indent--
	}
	return nil
}

func (g *pyGen) scoringDefault(s *types.Scoring) (string, error) {
	if s.Default != nil {
		return g.resultFields(s.Default)
	}
	return `{"score": 0.0}`, nil
}

func (g *pyGen) alias(f *types.Formula) {
	g.aliasFrom(f, pyCtx(f.ID))
}

func (g *pyGen) aliasFrom(f *types.Formula, src string) {
	if f.As != "" {
		g.linef("%s = %s", pyCtx(f.As), src)
	}
}

func (g *pyGen) setVars(vars map[string]any) error {
	for _, k := range sortedKeys(vars) {
		v, err := g.resolved(vars[k])
		if err != nil {
			return err
		}
		g.linef("%s = %s", pyCtx(k), v)
	}
	return nil
}

func (g *pyGen) cond(c *types.Condition, sub subjectRef) (string, error) {
	if c == nil {
		return "", g.errf("nil condition")
	}
	if children := c.And; len(children) > 0 {
		return g.condGroup(children, " and ", sub)
	}
	if children := c.Or; len(children) > 0 {
		return g.condGroup(children, " or ", sub)
	}

	var guards []string
	var left string
	switch {
	case c.Var != "":
		guards = append(guards, pyGuard(c.Var))
		left = pyCtx(c.Var)
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
		guards = append(guards, pyGuard(ref))
		right = pyCtx(ref)
	} else {
		right = g.value(c.Value)
	}

	cmp, err := g.comparison(c.Op, left, right)
	if err != nil {
		return "", err
	}
	return "(" + strings.Join(append(guards, cmp), " and ") + ")", nil
}

func (g *pyGen) condGroup(children []*types.Condition, sep string, sub subjectRef) (string, error) {
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

func (g *pyGen) comparison(op, left, right string) (string, error) {
	switch op {
	case "==":
		return fmt.Sprintf("_eq(%s, %s)", left, right), nil
	case "!=":
		return fmt.Sprintf("not _eq(%s, %s)", left, right), nil
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
		return fmt.Sprintf("not _in(%s, %s)", left, right), nil
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

func (g *pyGen) expr(n exprNode) (string, error) {
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
			return fmt.Sprintf("math.pow(_num(%s), _num(%s))", left, right), nil
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

func (g *pyGen) call(name string, args []string) (string, error) {
	if native, ok := pyMath[name]; ok {
		for i, a := range args {
			args[i] = fmt.Sprintf("_num(%s)", a)
		}
		return fmt.Sprintf("%s(%s)", native, strings.Join(args, ", ")), nil
	}
	if name == "round" {
		g.use("round")
		return fmt.Sprintf("_round_to(%s)", strings.Join(args, ", ")), nil
	}
	if pyAggregates[name] {
		g.use(name)
		return fmt.Sprintf("_%s([%s])", name, strings.Join(args, ", ")), nil
	}
	if _, ok := pyHelperDefs[name]; ok {
		g.use(name)
		return fmt.Sprintf("_%s(%s)", name, strings.Join(args, ", ")), nil
	}
	return "", g.errf("function %q has no python mapping", name)
}

func (g *pyGen) resolved(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return g.value(raw), nil
	}
	if types.IsReference(s) {
		return fmt.Sprintf("_ref(%s)", quoteString(types.CanonicalName(s))), nil
	}
	return g.resolvedString(s)
}

func (g *pyGen) param(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return g.value(raw), nil
	}
	if types.IsReference(s) {
		return fmt.Sprintf("_var(%s)", quoteString(types.CanonicalName(s))), nil
	}
	return g.resolvedString(s)
}

func (g *pyGen) resolvedString(s string) (string, error) {
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

func (g *pyGen) resultFields(fields map[string]any) (string, error) {
	if len(fields) == 0 {
		return "{}", nil
	}
	parts := make([]string, 0, len(fields))
	for _, k := range sortedKeys(fields) {
		v := fields[k]
		rendered := ""
		if ref, ok := v.(string); ok && types.IsReference(ref) {
			rendered = fmt.Sprintf("_ref(%s)", quoteString(types.CanonicalName(ref)))
		} else {
			rendered = g.value(v)
		}
		parts = append(parts, fmt.Sprintf("%s: %s", quoteString(k), rendered))
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}

func (g *pyGen) value(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
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
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return quoteString(fmt.Sprintf("%v", v))
	}
}
