package engine

import (
	"reflect"
	"testing"

	"github.com/quarterbit/formulary/internal/types"
)

func TestRun_ScoringSimple(t *testing.T) {
	f := &types.Formula{
		ID: "assessment",
		Scoring: &types.Scoring{
			If:     &types.Condition{Var: "credit_score", Op: ">=", Value: 700.0},
			Result: map[string]any{"score": 90, "level": "prime"},
		},
	}

	got := runOne(t, f, map[string]any{"credit_score": 720.0})
	want := map[string]any{"score": 90.0, "level": "prime"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("assessment = %v, want %v", got, want)
	}

	// condition false without a default yields the zero score
	got = runOne(t, f, map[string]any{"credit_score": 500.0})
	want = map[string]any{"score": 0.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("assessment = %v, want %v", got, want)
	}
}

func TestRun_ScoringSimpleDefault(t *testing.T) {
	f := &types.Formula{
		ID: "assessment",
		Scoring: &types.Scoring{
			If:      &types.Condition{Var: "credit_score", Op: ">=", Value: 700.0},
			Result:  map[string]any{"score": 90},
			Default: map[string]any{"score": 20, "level": "subprime"},
		},
	}
	got := runOne(t, f, map[string]any{"credit_score": 500.0})
	want := map[string]any{"score": 20.0, "level": "subprime"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("assessment = %v, want %v", got, want)
	}
}

func treeScoringFormula() *types.Formula {
	return &types.Formula{
		ID: "rating",
		Scoring: &types.Scoring{
			Dimensions: []string{"age", "income"},
			Ranges: []types.ScoringNode{
				{
					If: &types.Condition{Op: "<", Value: 30.0},
					Ranges: []types.ScoringNode{
						{
							If:      &types.Condition{Op: "<", Value: 30000.0},
							Fields:  map[string]any{"score": 40, "level": "C"},
							SetVars: map[string]any{"rating_band": "young_low"},
						},
						{
							If:     &types.Condition{Op: ">=", Value: 30000.0},
							Fields: map[string]any{"score": 70, "level": "B"},
						},
					},
				},
				{
					If: &types.Condition{Op: ">=", Value: 30.0},
					Ranges: []types.ScoringNode{
						{
							If:     &types.Condition{Op: ">=", Value: 50000.0},
							Fields: map[string]any{"score": 95, "level": "A"},
						},
					},
				},
			},
			Default: map[string]any{"score": 10, "level": "D"},
		},
	}
}

func TestRun_ScoringTree(t *testing.T) {
	tests := []struct {
		name   string
		inputs map[string]any
		want   map[string]any
	}{
		{
			"young low income",
			map[string]any{"age": 25.0, "income": 20000.0},
			map[string]any{"score": 40.0, "level": "C"},
		},
		{
			"young high income",
			map[string]any{"age": 25.0, "income": 45000.0},
			map[string]any{"score": 70.0, "level": "B"},
		},
		{
			"older high income",
			map[string]any{"age": 45.0, "income": 80000.0},
			map[string]any{"score": 95.0, "level": "A"},
		},
		{
			"no branch matches at second level",
			map[string]any{"age": 45.0, "income": 20000.0},
			map[string]any{"score": 10.0, "level": "D"},
		},
		{
			"missing dimension short-circuits to default",
			map[string]any{"age": 25.0},
			map[string]any{"score": 10.0, "level": "D"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runOne(t, treeScoringFormula(), tt.inputs)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("rating = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRun_ScoringTreeSetVars(t *testing.T) {
	f := mustNormalize(t, treeScoringFormula())
	ctx, err := newEngine().Run([]types.Formula{*f}, map[string]any{"age": 25.0, "income": 20000.0})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if v, _ := ctx.Get("rating_band"); v != "young_low" {
		t.Errorf("rating_band = %v, want young_low", v)
	}
}

func TestRun_ScoringMissingDimensionNoDefault(t *testing.T) {
	f := &types.Formula{
		ID: "rating",
		Scoring: &types.Scoring{
			Dimensions: []string{"age"},
			Ranges: []types.ScoringNode{
				{If: &types.Condition{Op: ">", Value: 0.0}, Fields: map[string]any{"score": 50}},
			},
		},
	}
	got := runOne(t, f, map[string]any{})
	want := map[string]any{"score": 0.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rating = %v, want zero score %v", got, want)
	}
}

func TestRun_ScoringReferenceFields(t *testing.T) {
	f := &types.Formula{
		ID: "rating",
		Scoring: &types.Scoring{
			If:     &types.Condition{Var: "qualified", Op: "==", Value: true},
			Result: map[string]any{"score": "$base_score", "missing": "$absent"},
		},
	}
	got := runOne(t, f, map[string]any{"qualified": true, "base_score": 77.0})
	want := map[string]any{"score": 77.0, "missing": nil}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rating = %v, want %v", got, want)
	}
}
