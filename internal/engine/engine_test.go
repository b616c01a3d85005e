package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/quarterbit/formulary/internal/catalog"
	"github.com/quarterbit/formulary/internal/types"
)

func newEngine() *Engine {
	return New(catalog.NewWithBuiltins(), Options{})
}

func mustNormalize(t *testing.T, f *types.Formula) *types.Formula {
	t.Helper()
	if err := f.Normalize(); err != nil {
		t.Fatalf("Normalize() error = %v, want nil", err)
	}
	return f
}

func runOne(t *testing.T, f *types.Formula, inputs map[string]any) any {
	t.Helper()
	ctx, err := newEngine().Run([]types.Formula{*mustNormalize(t, f)}, inputs)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	v, _ := ctx.Get(f.ID)
	return v
}

func TestRun_Expression(t *testing.T) {
	f := &types.Formula{
		ID:         "total",
		Expression: "price * quantity",
		Inputs:     []string{"price", "quantity"},
	}
	got := runOne(t, f, map[string]any{"price": 9.99, "quantity": 3.0})
	if got != 29.97 {
		t.Errorf("total = %v, want 29.97", got)
	}
}

func TestRun_ExpressionMissingInput(t *testing.T) {
	f := mustNormalize(t, &types.Formula{
		ID:         "total",
		Expression: "price * quantity",
		Inputs:     []string{"price", "quantity"},
	})
	_, err := newEngine().Run([]types.Formula{*f}, map[string]any{"price": 9.99})
	if err == nil {
		t.Fatal("Run() error = nil, want unresolved variable")
	}
	if !errors.Is(err, types.ErrUnresolvedVariable) {
		t.Errorf("Run() error = %v, want ErrUnresolvedVariable", err)
	}
	var fe *types.FormulaError
	if !errors.As(err, &fe) {
		t.Fatalf("Run() error = %v, want FormulaError", err)
	}
	if fe.FormulaID != "total" {
		t.Errorf("FormulaError.FormulaID = %q, want %q", fe.FormulaID, "total")
	}
}

func TestRun_Switch(t *testing.T) {
	f := &types.Formula{
		ID:     "rate",
		Switch: "tier",
		When: []types.Case{
			{If: &types.Condition{Op: "==", Value: "gold"}, Result: 0.02},
			{If: &types.Condition{Op: "==", Value: "silver"}, Result: 0.05},
		},
		Default: &types.Case{Result: 0.1},
	}

	tests := []struct {
		name   string
		inputs map[string]any
		want   float64
	}{
		{"first case", map[string]any{"tier": "gold"}, 0.02},
		{"second case", map[string]any{"tier": "silver"}, 0.05},
		{"no match falls to default", map[string]any{"tier": "bronze"}, 0.1},
		{"missing switch variable falls to default", map[string]any{}, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runOne(t, f, tt.inputs)
			if got != tt.want {
				t.Errorf("rate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRun_SwitchFirstMatchWins(t *testing.T) {
	f := &types.Formula{
		ID:     "band",
		Switch: "score",
		When: []types.Case{
			{If: &types.Condition{Op: ">", Value: 50.0}, Result: "upper"},
			{If: &types.Condition{Op: ">", Value: 10.0}, Result: "mid"},
		},
	}
	got := runOne(t, f, map[string]any{"score": 80.0})
	if got != "upper" {
		t.Errorf("band = %v, want upper (first matching case)", got)
	}
}

func TestRun_SwitchNoMatchNoDefault(t *testing.T) {
	f := &types.Formula{
		ID:     "band",
		Switch: "score",
		When: []types.Case{
			{If: &types.Condition{Op: ">", Value: 50.0}, Result: "upper"},
		},
	}
	got := runOne(t, f, map[string]any{"score": 10.0})
	if got != nil {
		t.Errorf("band = %v, want nil when nothing matches and no default declared", got)
	}
}

func TestRun_ConditionsWithSetVars(t *testing.T) {
	f := mustNormalize(t, &types.Formula{
		ID: "eligibility",
		When: []types.Case{
			{
				If:      &types.Condition{Var: "age", Op: ">=", Value: 18.0},
				SetVars: map[string]any{"reason": "adult", "bonus": "age * 2"},
				Result:  "$bonus",
			},
		},
		Default: &types.Case{Result: false},
	})
	ctx, err := newEngine().Run([]types.Formula{*f}, map[string]any{"age": 21.0})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	// set_vars apply before the result resolves, so $bonus is visible
	if v, _ := ctx.Get("eligibility"); v != 42.0 {
		t.Errorf("eligibility = %v, want 42", v)
	}
	if v, _ := ctx.Get("reason"); v != "adult" {
		t.Errorf("reason = %v, want adult", v)
	}
}

func TestRun_ResultResolution(t *testing.T) {
	tests := []struct {
		name   string
		result any
		inputs map[string]any
		want   any
	}{
		{"literal number", 7, map[string]any{"x": 1.0}, 7.0},
		{"literal string", "approved", map[string]any{"x": 1.0}, "approved"},
		{"reference", "$x", map[string]any{"x": 3.5}, 3.5},
		{"missing reference resolves to nil", "$y", map[string]any{"x": 1.0}, nil},
		{"bare bound name", "x", map[string]any{"x": 3.5}, 3.5},
		{"expression string", "x + 1", map[string]any{"x": 3.0}, 4.0},
		{"unevaluable string stays literal", "n/a", map[string]any{"x": 1.0}, "n/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &types.Formula{
				ID: "out",
				When: []types.Case{
					{If: &types.Condition{Var: "x", Op: ">=", Value: 0.0}, Result: tt.result},
				},
			}
			got := runOne(t, f, tt.inputs)
			if got != tt.want {
				t.Errorf("out = %v (%T), want %v", got, got, tt.want)
			}
		})
	}
}

func TestRun_FunctionCall(t *testing.T) {
	f := &types.Formula{
		ID:       "payment",
		Function: "loan_payment",
		Params:   []any{"$principal", "$rate", "$periods"},
	}
	got := runOne(t, f, map[string]any{"principal": 100000.0, "rate": 0.005, "periods": 360.0})
	n, ok := got.(float64)
	if !ok {
		t.Fatalf("payment = %T, want float64", got)
	}
	// numeric results round to 6 decimals before storage
	if n != math.Round(n*1e6)/1e6 {
		t.Errorf("payment = %v, want 6-decimal rounded", n)
	}
	if math.Abs(n-599.551) > 0.001 {
		t.Errorf("payment = %v, want about 599.551", n)
	}
}

func TestRun_FunctionCallParamResolution(t *testing.T) {
	f := &types.Formula{
		ID:       "result",
		Function: "max",
		Params:   []any{"base * 2", 10, "$cap"},
	}
	got := runOne(t, f, map[string]any{"base": 30.0, "cap": 45.0})
	if got != 60.0 {
		t.Errorf("result = %v, want 60 (expression param wins)", got)
	}
}

func TestRun_FunctionCallMissingReference(t *testing.T) {
	f := mustNormalize(t, &types.Formula{
		ID:       "result",
		Function: "abs",
		Params:   []any{"$missing"},
	})
	_, err := newEngine().Run([]types.Formula{*f}, nil)
	if !errors.Is(err, types.ErrUnresolvedVariable) {
		t.Errorf("Run() error = %v, want ErrUnresolvedVariable", err)
	}
}

func TestRun_Accumulative(t *testing.T) {
	f := &types.Formula{
		ID: "risk",
		Rules: []types.AccumRule{
			{
				Var: "age",
				Ranges: []types.Range{
					{If: &types.Condition{Op: "<", Value: 25.0}, Score: 30},
					{If: &types.Condition{Op: "between", Value: []any{25.0, 60.0}}, Score: 10},
				},
			},
			{
				Var:   "smoker",
				If:    &types.Condition{Op: "==", Value: true},
				Score: 25,
			},
			{
				Var: "income",
				Ranges: []types.Range{
					{If: &types.Condition{Op: "<", Value: 20000.0}, Score: 15},
				},
			},
		},
	}

	tests := []struct {
		name   string
		inputs map[string]any
		want   float64
	}{
		{"all rules fire", map[string]any{"age": 22.0, "smoker": true, "income": 15000.0}, 70},
		{"middle range plus guard", map[string]any{"age": 40.0, "smoker": true, "income": 50000.0}, 35},
		{"missing variables skipped", map[string]any{"age": 40.0}, 10},
		{"nothing present totals zero", map[string]any{}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runOne(t, f, tt.inputs)
			if got != tt.want {
				t.Errorf("risk = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRun_AccumulativeFirstRangeWins(t *testing.T) {
	f := &types.Formula{
		ID: "score",
		Rules: []types.AccumRule{
			{
				Var: "x",
				Ranges: []types.Range{
					{If: &types.Condition{Op: ">", Value: 0.0}, Score: 5, SetVars: map[string]any{"matched": "first"}},
					{If: &types.Condition{Op: ">", Value: -10.0}, Score: 50},
				},
			},
		},
	}
	ctx, err := newEngine().Run([]types.Formula{*mustNormalize(t, f)}, map[string]any{"x": 1.0})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if v, _ := ctx.Get("score"); v != 5.0 {
		t.Errorf("score = %v, want 5 (first matching range only)", v)
	}
	if v, _ := ctx.Get("matched"); v != "first" {
		t.Errorf("matched = %v, want first", v)
	}
}

func TestRun_Alias(t *testing.T) {
	f := mustNormalize(t, &types.Formula{
		ID:         "base_premium",
		As:         "premium",
		Expression: "rate * 1000",
		Inputs:     []string{"rate"},
	})
	ctx, err := newEngine().Run([]types.Formula{*f}, map[string]any{"rate": 0.05})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	primary, _ := ctx.Get("base_premium")
	alias, _ := ctx.Get("premium")
	if primary != 50.0 || alias != 50.0 {
		t.Errorf("base_premium = %v, premium = %v, want both 50", primary, alias)
	}
}

func TestRun_ChainedFormulas(t *testing.T) {
	formulas := []types.Formula{
		{ID: "subtotal", Expression: "price * quantity", Inputs: []string{"price", "quantity"}},
		{ID: "tax", Expression: "subtotal * 0.08"},
		{ID: "total", Expression: "subtotal + tax"},
	}
	for i := range formulas {
		mustNormalize(t, &formulas[i])
	}
	ctx, err := newEngine().Run(formulas, map[string]any{"price": 100.0, "quantity": 2.0})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if v, _ := ctx.Get("total"); v != 216.0 {
		t.Errorf("total = %v, want 216", v)
	}
}

func TestRun_Repeatable(t *testing.T) {
	formulas := []types.Formula{
		{ID: "subtotal", Expression: "price * quantity", Inputs: []string{"price", "quantity"}},
		{ID: "tax", Expression: "subtotal * 0.08"},
		{ID: "total", Expression: "subtotal + tax"},
	}
	for i := range formulas {
		mustNormalize(t, &formulas[i])
	}
	e := newEngine()
	inputs := map[string]any{"price": 100.0, "quantity": 2.0}
	first, err := e.Run(formulas, inputs)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	second, err := e.Run(formulas, inputs)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if !first.Equal(second) {
		t.Errorf("repeated Run diverged: %v vs %v", first.Map(), second.Map())
	}
}

func TestApply_UnnormalizedFormulaFails(t *testing.T) {
	f := types.Formula{ID: "x", Expression: "1 + 1"}
	err := newEngine().Apply(&f, types.NewContext())
	if !errors.Is(err, types.ErrInvalidStructure) {
		t.Errorf("Apply() error = %v, want ErrInvalidStructure for unresolved kind", err)
	}
}
