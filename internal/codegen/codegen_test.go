package codegen

import (
	"errors"
	"reflect"
	"testing"

	"github.com/quarterbit/formulary/internal/catalog"
	"github.com/quarterbit/formulary/internal/engine"
	"github.com/quarterbit/formulary/internal/types"
)

func mustDocument(t *testing.T, formulas []types.Formula) *types.Document {
	t.Helper()
	doc := &types.Document{Formulas: formulas}
	if err := doc.Normalize(); err != nil {
		t.Fatalf("Normalize() error = %v, want nil", err)
	}
	return doc
}

// fullDocument exercises every statement kind the back ends render.
func fullDocument(t *testing.T) *types.Document {
	t.Helper()
	return mustDocument(t, []types.Formula{
		{
			ID:         "subtotal",
			Expression: "price * quantity",
			Inputs:     []string{"price", "quantity"},
		},
		{
			ID:     "discount_rate",
			Switch: "tier",
			When: []types.Case{
				{If: &types.Condition{Op: "==", Value: "gold"}, Result: 0.2},
				{If: &types.Condition{Op: "==", Value: "silver"}, Result: 0.1},
			},
			Default: &types.Case{Result: 0.0},
		},
		{
			ID:         "total",
			As:         "amount_due",
			Expression: "subtotal * (1 - discount_rate)",
		},
		{
			ID:       "payment",
			Function: "round",
			Params:   []any{"$total", 2},
		},
		{
			ID: "risk",
			Rules: []types.AccumRule{
				{
					Var: "age",
					Ranges: []types.Range{
						{If: &types.Condition{Op: "<", Value: 25.0}, Score: 30},
						{If: &types.Condition{Op: ">=", Value: 25.0}, Score: 10},
					},
				},
				{Var: "smoker", If: &types.Condition{Op: "==", Value: true}, Score: 25},
			},
		},
		{
			ID: "rating",
			Scoring: &types.Scoring{
				Dimensions: []string{"age"},
				Ranges: []types.ScoringNode{
					{If: &types.Condition{Op: "<", Value: 30.0}, Fields: map[string]any{"score": 60, "level": "B"}},
					{If: &types.Condition{Op: ">=", Value: 30.0}, Fields: map[string]any{"score": 85, "level": "A"}},
				},
				Default: map[string]any{"score": 0, "level": "none"},
			},
		},
	})
}

func TestLower_OrdersAndLowers(t *testing.T) {
	// declared out of dependency order on purpose
	doc := mustDocument(t, []types.Formula{
		{ID: "total", Expression: "subtotal * 2"},
		{ID: "subtotal", Expression: "price + 1", Inputs: []string{"price"}},
	})
	p, warn, err := Lower(doc)
	if err != nil {
		t.Fatalf("Lower() error = %v, want nil", err)
	}
	if warn != nil {
		t.Fatalf("Lower() warning = %v, want nil", warn)
	}
	if len(p.Stmts) != 2 {
		t.Fatalf("Lower() produced %d statements, want 2", len(p.Stmts))
	}
	if p.Stmts[0].Formula.ID != "subtotal" || p.Stmts[1].Formula.ID != "total" {
		t.Errorf("statement order = [%s, %s], want [subtotal, total]",
			p.Stmts[0].Formula.ID, p.Stmts[1].Formula.ID)
	}
	if !reflect.DeepEqual(p.Inputs, []string{"price"}) {
		t.Errorf("Inputs = %v, want [price]", p.Inputs)
	}
}

func TestLower_ExternalInputs(t *testing.T) {
	p, _, err := Lower(fullDocument(t))
	if err != nil {
		t.Fatalf("Lower() error = %v, want nil", err)
	}
	want := []string{"age", "price", "quantity", "smoker", "tier"}
	if !reflect.DeepEqual(p.Inputs, want) {
		t.Errorf("Inputs = %v, want %v", p.Inputs, want)
	}
}

func TestLower_BadExpression(t *testing.T) {
	doc := mustDocument(t, []types.Formula{
		{ID: "bad", Expression: "price @ 2"},
	})
	_, _, err := Lower(doc)
	if err == nil {
		t.Fatal("Lower() error = nil, want CodegenError")
	}
	if !errors.Is(err, types.ErrCodegen) {
		t.Errorf("Lower() error = %v, want ErrCodegen", err)
	}
	var ce *types.CodegenError
	if !errors.As(err, &ce) || ce.FormulaID != "bad" {
		t.Errorf("Lower() error = %v, want CodegenError naming formula bad", err)
	}
}

func TestLower_CycleWarning(t *testing.T) {
	doc := mustDocument(t, []types.Formula{
		{ID: "a", Expression: "b + 1"},
		{ID: "b", Expression: "a + 1"},
	})
	p, warn, err := Lower(doc)
	if err != nil {
		t.Fatalf("Lower() error = %v, want nil", err)
	}
	if warn == nil {
		t.Fatal("Lower() warning = nil, want CircularDependencyWarning")
	}
	if len(p.Stmts) != 2 {
		t.Errorf("Lower() produced %d statements, want 2 despite cycle", len(p.Stmts))
	}
}

func TestProgramRun(t *testing.T) {
	p, _, err := Lower(fullDocument(t))
	if err != nil {
		t.Fatalf("Lower() error = %v, want nil", err)
	}
	eng := engine.New(catalog.NewWithBuiltins(), engine.Options{})
	inputs := map[string]any{
		"price":    100.0,
		"quantity": 3.0,
		"tier":     "gold",
		"age":      28.0,
		"smoker":   true,
	}
	ctx, err := p.Run(eng, inputs)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	checks := map[string]any{
		"subtotal":   300.0,
		"total":      240.0,
		"amount_due": 240.0,
		"payment":    240.0,
		"risk":       35.0,
	}
	for key, want := range checks {
		got, ok := ctx.Get(key)
		if !ok {
			t.Errorf("context missing %q", key)
			continue
		}
		if got != want {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
	rating, _ := ctx.Get("rating")
	wantRating := map[string]any{"score": 60.0, "level": "B"}
	if !reflect.DeepEqual(rating, wantRating) {
		t.Errorf("rating = %v, want %v", rating, wantRating)
	}
}

func TestForTarget(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"javascript", "javascript"},
		{"js", "javascript"},
		{"JavaScript", "javascript"},
		{"python", "python"},
		{"py", "python"},
	}
	for _, tt := range tests {
		b, err := ForTarget(tt.name)
		if err != nil {
			t.Fatalf("ForTarget(%q) error = %v, want nil", tt.name, err)
		}
		if b.Target() != tt.want {
			t.Errorf("ForTarget(%q).Target() = %q, want %q", tt.name, b.Target(), tt.want)
		}
	}

	if _, err := ForTarget("cobol"); !errors.Is(err, types.ErrCodegen) {
		t.Errorf("ForTarget(cobol) error = %v, want ErrCodegen", err)
	}
}

func TestTargets(t *testing.T) {
	got := Targets()
	if !reflect.DeepEqual(got, []string{"javascript", "python"}) {
		t.Errorf("Targets() = %v", got)
	}
}
