package types

import (
	"encoding/json"
	"fmt"
)

/*
 * Domain model for formula configurations.
 *
 * A Document is the top-level configuration: an ordered list of formulas.
 * Formula is a closed tagged union over six kinds; the tag is resolved once
 * during Normalize so the dispatch engine can match exhaustively on Kind()
 * instead of re-checking field presence at every call site.
 *
 * Naming: configurations may reference variables with or without the "$"
 * sigil. Normalize canonicalizes every name it can see statically (inputs,
 * switch variables, condition vars, rule vars, scoring dimensions, set_vars
 * keys) so downstream stages only ever handle canonical keys. Names inside
 * expression text are resolved lazily by the expression evaluator, which
 * accepts both forms.
 *
 * Validation performed by Normalize:
 *   - exactly one kind tag per formula, unique non-empty ids
 *   - boolean groups have at least one child (degenerate groups rejected)
 *   - switch requires cases; function requires a name; scoring trees may
 *     not nest deeper than the declared dimension count
 */

// FormulaKind discriminates the closed set of formula variants.
type FormulaKind int

const (
	KindInvalid FormulaKind = iota
	KindExpression
	KindSwitch
	KindConditions
	KindFunctionCall
	KindAccumulative
	KindScoring
)

// String returns the configuration-facing name of the kind.
func (k FormulaKind) String() string {
	switch k {
	case KindExpression:
		return "expression"
	case KindSwitch:
		return "switch"
	case KindConditions:
		return "conditions"
	case KindFunctionCall:
		return "function"
	case KindAccumulative:
		return "rules"
	case KindScoring:
		return "scoring"
	default:
		return "invalid"
	}
}

// Document is a formula configuration: the only top-level key the engine
// interprets is "formulas".
type Document struct {
	Formulas []Formula `json:"formulas"`
}

// Normalize validates the document and canonicalizes every formula in place.
// Must be called once after decoding, before ordering or evaluation.
func (d *Document) Normalize() error {
	seen := make(map[string]bool, len(d.Formulas))
	for i := range d.Formulas {
		f := &d.Formulas[i]
		if err := f.Normalize(); err != nil {
			return err
		}
		if seen[f.ID] {
			return &StructureError{FormulaID: f.ID, Reason: "duplicate formula id"}
		}
		seen[f.ID] = true
	}
	return nil
}

// Formula is one named unit of computation. Exactly one kind tag
// (expression, switch, when-without-switch, function, rules, scoring) must
// be present; Normalize resolves it into kind.
type Formula struct {
	ID string `json:"id"`
	As string `json:"as,omitempty"` // secondary alias key, written alongside ID

	// Expression kind
	Expression string   `json:"expression,omitempty"`
	Inputs     []string `json:"inputs,omitempty"`

	// Switch kind (Switch set) and Conditions kind (Switch empty)
	Switch  string `json:"switch,omitempty"`
	When    []Case `json:"when,omitempty"`
	Default *Case  `json:"default,omitempty"`

	// FunctionCall kind
	Function string `json:"function,omitempty"`
	Params   []any  `json:"params,omitempty"`

	// AccumulativeRules kind
	Rules []AccumRule `json:"rules,omitempty"`

	// Scoring kind
	Scoring *Scoring `json:"scoring,omitempty"`

	kind FormulaKind
}

// Kind returns the variant tag resolved by Normalize.
func (f *Formula) Kind() FormulaKind { return f.kind }

// Normalize resolves the kind tag, canonicalizes variable names, and
// validates the formula's shape.
func (f *Formula) Normalize() error {
	if f.ID == "" {
		return &StructureError{Reason: "formula missing id"}
	}
	f.ID = CanonicalName(f.ID)
	f.As = CanonicalName(f.As)

	tags := 0
	if f.Expression != "" {
		f.kind = KindExpression
		tags++
	}
	if f.Switch != "" {
		f.kind = KindSwitch
		tags++
	}
	if f.Switch == "" && len(f.When) > 0 {
		f.kind = KindConditions
		tags++
	}
	if f.Function != "" {
		f.kind = KindFunctionCall
		tags++
	}
	if len(f.Rules) > 0 {
		f.kind = KindAccumulative
		tags++
	}
	if f.Scoring != nil {
		f.kind = KindScoring
		tags++
	}
	if tags == 0 {
		return &StructureError{FormulaID: f.ID, Reason: "formula has no kind tag"}
	}
	if tags > 1 {
		return &StructureError{FormulaID: f.ID, Reason: "formula has more than one kind tag"}
	}

	for i, in := range f.Inputs {
		f.Inputs[i] = CanonicalName(in)
	}

	switch f.kind {
	case KindSwitch:
		f.Switch = CanonicalName(f.Switch)
		if len(f.When) == 0 {
			return &StructureError{FormulaID: f.ID, Reason: "switch without when cases"}
		}
		return f.normalizeCases(false)
	case KindConditions:
		return f.normalizeCases(true)
	case KindFunctionCall:
		// params stay as decoded; the engine resolves them positionally
		return nil
	case KindAccumulative:
		return f.normalizeRules()
	case KindScoring:
		return f.Scoring.normalize(f.ID)
	default:
		return nil
	}
}

func (f *Formula) normalizeCases(requireVars bool) error {
	for i := range f.When {
		c := &f.When[i]
		if c.If == nil {
			return &StructureError{FormulaID: f.ID, Reason: fmt.Sprintf("case %d missing condition", i)}
		}
		if err := c.If.normalize(f.ID, requireVars); err != nil {
			return err
		}
		c.SetVars = canonicalizeSetVars(c.SetVars)
	}
	if f.Default != nil {
		f.Default.SetVars = canonicalizeSetVars(f.Default.SetVars)
	}
	return nil
}

func (f *Formula) normalizeRules() error {
	for i := range f.Rules {
		r := &f.Rules[i]
		if r.Var == "" {
			return &StructureError{FormulaID: f.ID, Reason: fmt.Sprintf("rule %d missing var", i)}
		}
		r.Var = CanonicalName(r.Var)
		if len(r.Ranges) == 0 && r.If == nil {
			return &StructureError{FormulaID: f.ID, Reason: fmt.Sprintf("rule %d has neither ranges nor if", i)}
		}
		if r.If != nil {
			if err := r.If.normalize(f.ID, false); err != nil {
				return err
			}
		}
		for j := range r.Ranges {
			rg := &r.Ranges[j]
			if rg.If == nil {
				return &StructureError{FormulaID: f.ID, Reason: fmt.Sprintf("rule %d range %d missing condition", i, j)}
			}
			if err := rg.If.normalize(f.ID, false); err != nil {
				return err
			}
			rg.SetVars = canonicalizeSetVars(rg.SetVars)
		}
	}
	return nil
}

// Case is one guarded branch of a Switch or Conditions formula. A nil If
// marks the default branch. Result may be a literal, a variable reference,
// or an expression string; SetVars are auxiliary assignments applied to
// context when the branch is taken.
type Case struct {
	If      *Condition     `json:"if,omitempty"`
	Result  any            `json:"result"`
	SetVars map[string]any `json:"set_vars,omitempty"`
}

// Condition is a recursive tree node: either a leaf comparison or a boolean
// group. A leaf without Var compares against the enclosing subject (switch
// variable, rule variable, or scoring dimension).
type Condition struct {
	Var   string `json:"var,omitempty"`
	Op    string `json:"op,omitempty"`
	Value any    `json:"value,omitempty"`

	And []*Condition `json:"and,omitempty"`
	Or  []*Condition `json:"or,omitempty"`
}

// IsGroup reports whether the node is a boolean group rather than a leaf.
func (c *Condition) IsGroup() bool { return len(c.And) > 0 || len(c.Or) > 0 }

func (c *Condition) normalize(formulaID string, requireVars bool) error {
	if len(c.And) > 0 && len(c.Or) > 0 {
		return &StructureError{FormulaID: formulaID, Reason: "condition group has both and/or"}
	}
	if c.IsGroup() {
		if c.Op != "" || c.Var != "" {
			return &StructureError{FormulaID: formulaID, Reason: "condition group mixes leaf fields"}
		}
		children := c.And
		if len(c.Or) > 0 {
			children = c.Or
		}
		for _, child := range children {
			if err := child.normalize(formulaID, requireVars); err != nil {
				return err
			}
		}
		return nil
	}
	// empty and/or arrays decode as nil slices; a node with no op is a
	// degenerate group either way
	if c.Op == "" {
		return &StructureError{FormulaID: formulaID, Reason: "condition group without children"}
	}
	if requireVars && c.Var == "" {
		return &StructureError{FormulaID: formulaID, Reason: "condition leaf missing var"}
	}
	c.Var = CanonicalName(c.Var)
	return nil
}

// AccumRule is one rule of an accumulative-scoring formula: a variable plus
// either ordered ranges or a single guard, contributing a score on match.
type AccumRule struct {
	Var    string     `json:"var"`
	If     *Condition `json:"if,omitempty"`
	Score  float64    `json:"score,omitempty"`
	Ranges []Range    `json:"ranges,omitempty"`
}

// Range is one guarded score contribution within an accumulative rule.
type Range struct {
	If      *Condition     `json:"if"`
	Score   float64        `json:"score"`
	SetVars map[string]any `json:"set_vars,omitempty"`
}

// Scoring is the payload of a scoring formula: either the simple form (one
// condition, one structured result) or the multi-dimensional decision tree.
type Scoring struct {
	// simple form
	If     *Condition     `json:"if,omitempty"`
	Result map[string]any `json:"result,omitempty"`

	// multi-dimensional form
	Dimensions []string       `json:"dimensions,omitempty"`
	Ranges     []ScoringNode  `json:"ranges,omitempty"`
	Default    map[string]any `json:"default,omitempty"`
}

// IsSimple reports whether the simple single-condition form is used.
func (s *Scoring) IsSimple() bool { return s.If != nil }

func (s *Scoring) normalize(formulaID string) error {
	if s.IsSimple() {
		if len(s.Dimensions) > 0 || len(s.Ranges) > 0 {
			return &StructureError{FormulaID: formulaID, Reason: "scoring mixes simple and multi-dimensional forms"}
		}
		if len(s.Result) == 0 {
			return &StructureError{FormulaID: formulaID, Reason: "simple scoring missing result"}
		}
		return s.If.normalize(formulaID, true)
	}
	if len(s.Dimensions) == 0 {
		return &StructureError{FormulaID: formulaID, Reason: "scoring missing dimensions"}
	}
	if len(s.Ranges) == 0 {
		return &StructureError{FormulaID: formulaID, Reason: "scoring missing ranges"}
	}
	for i, dim := range s.Dimensions {
		s.Dimensions[i] = CanonicalName(dim)
	}
	depth, err := normalizeScoringNodes(s.Ranges, formulaID)
	if err != nil {
		return err
	}
	if depth > len(s.Dimensions) {
		return &StructureError{
			FormulaID: formulaID,
			Reason:    fmt.Sprintf("scoring tree depth %d exceeds %d declared dimensions", depth, len(s.Dimensions)),
		}
	}
	return nil
}

func normalizeScoringNodes(nodes []ScoringNode, formulaID string) (int, error) {
	depth := 0
	for i := range nodes {
		n := &nodes[i]
		if n.If == nil {
			return 0, &StructureError{FormulaID: formulaID, Reason: "scoring node missing condition"}
		}
		if err := n.If.normalize(formulaID, false); err != nil {
			return 0, err
		}
		n.SetVars = canonicalizeSetVars(n.SetVars)
		nested := 0
		if len(n.Ranges) > 0 {
			var err error
			nested, err = normalizeScoringNodes(n.Ranges, formulaID)
			if err != nil {
				return 0, err
			}
		}
		if nested+1 > depth {
			depth = nested + 1
		}
	}
	return depth, nil
}

// ScoringNode is one branch of a multi-dimensional scoring tree. A node with
// nested Ranges descends into the next dimension; a terminal node's Fields
// (score, level, and arbitrary pass-through metadata) become the structured
// result.
type ScoringNode struct {
	If      *Condition
	Ranges  []ScoringNode
	SetVars map[string]any
	Fields  map[string]any // terminal payload minus control keys
}

// scoringNodeControlKeys are consumed by the engine and never passed through
// to the structured result.
var scoringNodeControlKeys = map[string]bool{
	"if":       true,
	"ranges":   true,
	"set_vars": true,
}

// UnmarshalJSON splits control keys from the arbitrary terminal payload.
func (n *ScoringNode) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["if"]; ok {
		if err := json.Unmarshal(v, &n.If); err != nil {
			return err
		}
	}
	if v, ok := raw["ranges"]; ok {
		if err := json.Unmarshal(v, &n.Ranges); err != nil {
			return err
		}
	}
	if v, ok := raw["set_vars"]; ok {
		if err := json.Unmarshal(v, &n.SetVars); err != nil {
			return err
		}
	}
	n.Fields = make(map[string]any)
	for key, v := range raw {
		if scoringNodeControlKeys[key] {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		n.Fields[key] = val
	}
	return nil
}

// MarshalJSON re-inlines the terminal payload next to the control keys.
func (n ScoringNode) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Fields)+3)
	for k, v := range n.Fields {
		out[k] = v
	}
	if n.If != nil {
		out["if"] = n.If
	}
	if len(n.Ranges) > 0 {
		out["ranges"] = n.Ranges
	}
	if len(n.SetVars) > 0 {
		out["set_vars"] = n.SetVars
	}
	return json.Marshal(out)
}

func canonicalizeSetVars(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[CanonicalName(k)] = v
	}
	return out
}
