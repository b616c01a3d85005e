package codegen

import (
	"strings"
	"testing"

	"github.com/quarterbit/formulary/internal/types"
)

func generatePy(t *testing.T, doc *types.Document) string {
	t.Helper()
	p, _, err := Lower(doc)
	if err != nil {
		t.Fatalf("Lower() error = %v, want nil", err)
	}
	out, err := (&Python{}).Generate(p)
	if err != nil {
		t.Fatalf("Generate() error = %v, want nil", err)
	}
	return out
}

func TestPython_Generate(t *testing.T) {
	out := generatePy(t, fullDocument(t))

	fragments := []string{
		"# Code generated by formulary. DO NOT EDIT.",
		"# inputs: age, price, quantity, smoker, tier",
		"def evaluate(inputs):",
		"import math",
		"ctx = dict(inputs)",
		`ctx["subtotal"] = _snap((_num(_var("price")) * _num(_var("quantity"))), 10)`,
		`if ("tier" in ctx and _eq(ctx["tier"], "gold")):`,
		`ctx["amount_due"] = ctx["total"]`,
		`ctx["payment"] = _round6(_round_to(_var("total"), 2))`,
		`if "age" in ctx:`,
		`{"level": "none", "score": 0}`,
		"return ctx",
	}
	for _, frag := range fragments {
		if !strings.Contains(out, frag) {
			t.Errorf("generated output missing %q\n%s", frag, out)
		}
	}

	if strings.Contains(out, "import datetime") {
		t.Error("datetime imported though age_from_date is never called")
	}
	if strings.Contains(out, "def _loan_payment") {
		t.Error("loan_payment helper emitted for a document that never calls it")
	}
}

func TestPython_FunctionName(t *testing.T) {
	p, _, err := Lower(mustDocument(t, []types.Formula{
		{ID: "x", Expression: "1 + 1"},
	}))
	if err != nil {
		t.Fatalf("Lower() error = %v, want nil", err)
	}
	out, err := (&Python{FunctionName: "compute_premium"}).Generate(p)
	if err != nil {
		t.Fatalf("Generate() error = %v, want nil", err)
	}
	if !strings.Contains(out, "def compute_premium(inputs):") {
		t.Errorf("output does not declare compute_premium:\n%s", out)
	}
}

func TestPython_PowerAndModulo(t *testing.T) {
	out := generatePy(t, mustDocument(t, []types.Formula{
		{ID: "p", Expression: "base ** 2", Inputs: []string{"base"}},
		{ID: "m", Expression: "total % 7", Inputs: []string{"total"}},
	}))
	// ** via math.pow keeps negative bases real; % via fmod keeps the
	// dividend's sign, matching the interpreter
	if !strings.Contains(out, `math.pow(_num(_var("base")), _num(2))`) {
		t.Errorf("power does not route through math.pow:\n%s", out)
	}
	if !strings.Contains(out, `_mod(_num(_var("total")), _num(7))`) {
		t.Errorf("modulo does not route through _mod:\n%s", out)
	}
}

func TestPython_DatetimeImportOnDemand(t *testing.T) {
	out := generatePy(t, mustDocument(t, []types.Formula{
		{ID: "age", Function: "age_from_date", Params: []any{"$birth_date"}},
	}))
	if !strings.Contains(out, "import datetime") {
		t.Errorf("datetime not imported though age_from_date is called:\n%s", out)
	}
	if !strings.Contains(out, "def _age_from_date(s):") {
		t.Errorf("age_from_date helper missing:\n%s", out)
	}
}

func TestPython_ConditionJoiners(t *testing.T) {
	out := generatePy(t, mustDocument(t, []types.Formula{
		{
			ID: "eligible",
			When: []types.Case{
				{
					If: &types.Condition{And: []*types.Condition{
						{Var: "age", Op: ">=", Value: 18.0},
						{Var: "region", Op: "not_in", Value: []any{"excluded_a", "excluded_b"}},
						{Or: []*types.Condition{
							{Var: "tier", Op: "==", Value: "gold"},
							{Var: "income", Op: ">", Value: 50000.0},
						}},
					}},
					Result: true,
				},
			},
			Default: &types.Case{Result: false},
		},
	}))
	if !strings.Contains(out, ` and `) || !strings.Contains(out, ` or `) {
		t.Errorf("boolean groups not joined with and/or:\n%s", out)
	}
	// python negation spells "not", never "!"
	if !strings.Contains(out, `not _in(ctx["region"], ["excluded_a", "excluded_b"])`) {
		t.Errorf("not_in rendering missing:\n%s", out)
	}
	if !strings.Contains(out, `("age" in ctx and _gte(ctx["age"], 18))`) {
		t.Errorf("leaf guard missing:\n%s", out)
	}
}
