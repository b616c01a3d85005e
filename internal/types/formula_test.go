package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalize_KindDetection(t *testing.T) {
	tests := []struct {
		name string
		f    Formula
		want FormulaKind
	}{
		{"expression", Formula{ID: "x", Expression: "1 + 1"}, KindExpression},
		{"switch", Formula{ID: "x", Switch: "tier", When: []Case{{If: &Condition{Op: "==", Value: "a"}, Result: 1.0}}}, KindSwitch},
		{"conditions", Formula{ID: "x", When: []Case{{If: &Condition{Var: "v", Op: "==", Value: "a"}, Result: 1.0}}}, KindConditions},
		{"function", Formula{ID: "x", Function: "abs", Params: []any{1.0}}, KindFunctionCall},
		{"rules", Formula{ID: "x", Rules: []AccumRule{{Var: "v", If: &Condition{Op: ">", Value: 1.0}, Score: 1}}}, KindAccumulative},
		{"scoring", Formula{ID: "x", Scoring: &Scoring{If: &Condition{Var: "v", Op: ">", Value: 1.0}, Result: map[string]any{"score": 1.0}}}, KindScoring},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.f.Normalize(); err != nil {
				t.Fatalf("Normalize() error = %v, want nil", err)
			}
			if tt.f.Kind() != tt.want {
				t.Errorf("Kind() = %v, want %v", tt.f.Kind(), tt.want)
			}
		})
	}
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name string
		f    Formula
	}{
		{"missing id", Formula{Expression: "1"}},
		{"no kind tag", Formula{ID: "x"}},
		{"two kind tags", Formula{ID: "x", Expression: "1", Function: "abs"}},
		{"switch without cases", Formula{ID: "x", Switch: "tier"}},
		{"conditions leaf missing var", Formula{ID: "x", When: []Case{{If: &Condition{Op: "==", Value: 1.0}, Result: 1.0}}}},
		{"case missing condition", Formula{ID: "x", Switch: "tier", When: []Case{{Result: 1.0}}}},
		{"group with both and/or", Formula{ID: "x", When: []Case{{If: &Condition{
			And: []*Condition{{Var: "a", Op: "==", Value: 1.0}},
			Or:  []*Condition{{Var: "b", Op: "==", Value: 1.0}},
		}, Result: 1.0}}}},
		{"group mixing leaf fields", Formula{ID: "x", When: []Case{{If: &Condition{
			Var: "a",
			And: []*Condition{{Var: "b", Op: "==", Value: 1.0}},
		}, Result: 1.0}}}},
		{"degenerate group", Formula{ID: "x", When: []Case{{If: &Condition{}, Result: 1.0}}}},
		{"rule missing var", Formula{ID: "x", Rules: []AccumRule{{If: &Condition{Op: ">", Value: 1.0}, Score: 1}}}},
		{"rule without ranges or if", Formula{ID: "x", Rules: []AccumRule{{Var: "v"}}}},
		{"scoring mixing forms", Formula{ID: "x", Scoring: &Scoring{
			If:         &Condition{Var: "v", Op: ">", Value: 1.0},
			Result:     map[string]any{"score": 1.0},
			Dimensions: []string{"d"},
		}}},
		{"scoring without dimensions", Formula{ID: "x", Scoring: &Scoring{
			Ranges: []ScoringNode{{If: &Condition{Op: ">", Value: 1.0}}},
		}}},
		{"scoring tree deeper than dimensions", Formula{ID: "x", Scoring: &Scoring{
			Dimensions: []string{"only"},
			Ranges: []ScoringNode{{
				If: &Condition{Op: ">", Value: 1.0},
				Ranges: []ScoringNode{{
					If:     &Condition{Op: ">", Value: 2.0},
					Fields: map[string]any{"score": 1.0},
				}},
			}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Normalize()
			if err == nil {
				t.Fatal("Normalize() error = nil, want error")
			}
			if !errors.Is(err, ErrInvalidStructure) {
				t.Errorf("Normalize() error = %v, want ErrInvalidStructure", err)
			}
		})
	}
}

func TestDocumentNormalize_DuplicateID(t *testing.T) {
	doc := Document{Formulas: []Formula{
		{ID: "x", Expression: "1"},
		{ID: "$x", Expression: "2"},
	}}
	err := doc.Normalize()
	if err == nil {
		t.Fatal("Normalize() error = nil, want duplicate id error")
	}
	if !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("Normalize() error = %v, want ErrInvalidStructure", err)
	}
}

func TestNormalize_CanonicalizesNames(t *testing.T) {
	f := Formula{
		ID:     "$decision",
		As:     "$verdict",
		Switch: "$tier",
		When: []Case{{
			If:      &Condition{Op: "==", Value: "a"},
			Result:  1.0,
			SetVars: map[string]any{"$note": "matched"},
		}},
	}
	if err := f.Normalize(); err != nil {
		t.Fatalf("Normalize() error = %v, want nil", err)
	}
	if f.ID != "decision" || f.As != "verdict" || f.Switch != "tier" {
		t.Errorf("canonical names = %q/%q/%q, want decision/verdict/tier", f.ID, f.As, f.Switch)
	}
	if _, ok := f.When[0].SetVars["note"]; !ok {
		t.Errorf("set_vars keys = %v, want canonical note", f.When[0].SetVars)
	}
}

func TestScoringNode_UnmarshalSplitsControlKeys(t *testing.T) {
	data := []byte(`{
		"if": {"op": "<", "value": 30},
		"set_vars": {"band": "low"},
		"score": 40,
		"level": "C",
		"note": "terminal"
	}`)
	var n ScoringNode
	if err := json.Unmarshal(data, &n); err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}
	if n.If == nil || n.If.Op != "<" {
		t.Errorf("If = %+v, want op <", n.If)
	}
	if n.SetVars["band"] != "low" {
		t.Errorf("SetVars = %v, want band low", n.SetVars)
	}
	for _, control := range []string{"if", "ranges", "set_vars"} {
		if _, ok := n.Fields[control]; ok {
			t.Errorf("Fields contains control key %q", control)
		}
	}
	if n.Fields["score"] != 40.0 || n.Fields["level"] != "C" || n.Fields["note"] != "terminal" {
		t.Errorf("Fields = %v, want score/level/note payload", n.Fields)
	}
}

func TestScoringNode_MarshalRoundTrip(t *testing.T) {
	orig := ScoringNode{
		If:      &Condition{Op: "<", Value: 30.0},
		SetVars: map[string]any{"band": "low"},
		Fields:  map[string]any{"score": 40.0},
	}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal() error = %v, want nil", err)
	}
	var back ScoringNode
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}
	if back.If == nil || back.If.Op != "<" {
		t.Errorf("If = %+v, want op <", back.If)
	}
	if back.Fields["score"] != 40.0 {
		t.Errorf("Fields = %v, want score 40", back.Fields)
	}
	if back.SetVars["band"] != "low" {
		t.Errorf("SetVars = %v, want band low", back.SetVars)
	}
}

func TestFormulaKind_String(t *testing.T) {
	tests := []struct {
		kind FormulaKind
		want string
	}{
		{KindExpression, "expression"},
		{KindSwitch, "switch"},
		{KindConditions, "conditions"},
		{KindFunctionCall, "function"},
		{KindAccumulative, "rules"},
		{KindScoring, "scoring"},
		{KindInvalid, "invalid"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
