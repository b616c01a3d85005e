package codegen

import (
	"github.com/quarterbit/formulary/internal/engine"
	"github.com/quarterbit/formulary/internal/types"
)

// Run executes the program through the dispatch engine. Back ends render
// from the same statements this runs, so a program's rendered function and
// its executed form share ordering and semantics; round-trip verification
// compares this against interpreting the document directly.
func (p *Program) Run(eng *engine.Engine, inputs map[string]any) (*types.Context, error) {
	formulas := make([]types.Formula, len(p.Stmts))
	for i := range p.Stmts {
		formulas[i] = p.Stmts[i].Formula
	}
	return eng.Run(formulas, inputs)
}
