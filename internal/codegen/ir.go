// Package codegen lowers an ordered formula list into a small statement IR
// and renders it as a standalone function in a target language.
package codegen

import (
	"sort"

	"github.com/quarterbit/formulary/internal/resolver"
	"github.com/quarterbit/formulary/internal/types"
)

/*
 * Intermediate representation.
 *
 * The IR is deliberately thin: an ordered list of statements, one per
 * formula, each carrying the normalized formula plus its resolved kind.
 * Ordering and dependency semantics are decided once (by the resolver)
 * before lowering; back ends only format. That keeps every back end
 * semantically identical to the interpreter by construction - the executor
 * in exec.go runs the same statements through the dispatch engine, which is
 * how generated output is verified against interpreted output.
 *
 * Lowering validates that each statement is expressible: expression text
 * must scan cleanly (see scan.go), and the kind tag must be resolved.
 * Function-name mapping is a back-end concern and validated during
 * rendering, where the target's native vocabulary is known.
 */

// StmtKind mirrors the formula kinds the back ends know how to render.
type StmtKind int

const (
	StmtExpression StmtKind = iota
	StmtSwitch
	StmtConditions
	StmtCall
	StmtAccumulate
	StmtScoring
)

// Stmt is one lowered formula.
type Stmt struct {
	Kind    StmtKind
	Formula types.Formula
}

// Program is a lowered, ordered configuration ready for rendering.
type Program struct {
	// Inputs lists the external variables the generated function expects,
	// sorted: every dependency no formula produces.
	Inputs []string
	Stmts  []Stmt
}

// Lower orders the document's formulas and lowers them into a Program.
// The document must be normalized. The returned warning mirrors the
// resolver's deadlock reporting.
func Lower(doc *types.Document) (*Program, *types.CircularDependencyWarning, error) {
	ordered, warning := resolver.Order(doc.Formulas)

	p := &Program{Stmts: make([]Stmt, 0, len(ordered))}
	for i := range ordered {
		f := &ordered[i]
		stmt, err := lowerFormula(f)
		if err != nil {
			return nil, warning, err
		}
		p.Stmts = append(p.Stmts, stmt)
	}

	p.Inputs = externalInputs(ordered)
	return p, warning, nil
}

func lowerFormula(f *types.Formula) (Stmt, error) {
	switch f.Kind() {
	case types.KindExpression:
		if _, err := scanExpression(f.Expression); err != nil {
			return Stmt{}, &types.CodegenError{FormulaID: f.ID, Reason: err.Error()}
		}
		return Stmt{Kind: StmtExpression, Formula: *f}, nil
	case types.KindSwitch:
		return Stmt{Kind: StmtSwitch, Formula: *f}, nil
	case types.KindConditions:
		return Stmt{Kind: StmtConditions, Formula: *f}, nil
	case types.KindFunctionCall:
		return Stmt{Kind: StmtCall, Formula: *f}, nil
	case types.KindAccumulative:
		return Stmt{Kind: StmtAccumulate, Formula: *f}, nil
	case types.KindScoring:
		return Stmt{Kind: StmtScoring, Formula: *f}, nil
	default:
		return Stmt{}, &types.CodegenError{FormulaID: f.ID, Reason: "formula kind not resolved (missing Normalize?)"}
	}
}

// externalInputs returns, sorted, every dependency not produced by any
// formula in the list.
func externalInputs(formulas []types.Formula) []string {
	produced := make(map[string]bool)
	for i := range formulas {
		for _, out := range resolver.Outputs(&formulas[i]) {
			produced[out] = true
		}
	}
	seen := make(map[string]bool)
	var inputs []string
	for i := range formulas {
		for _, dep := range resolver.Deps(&formulas[i]) {
			if produced[dep] || seen[dep] {
				continue
			}
			seen[dep] = true
			inputs = append(inputs, dep)
		}
	}
	sort.Strings(inputs)
	return inputs
}
