package engine

import (
	"time"

	"github.com/quarterbit/formulary/internal/resolver"
	"github.com/quarterbit/formulary/internal/types"
)

// RunResult is the convenience wrapper around one evaluation: the output
// context plus run identity and timing metadata. The core guarantee is the
// Outputs context; everything else is bookkeeping for callers and the store.
type RunResult struct {
	RunID   types.RunID
	Outputs *types.Context
	Warning *types.CircularDependencyWarning
	Elapsed time.Duration
}

// Evaluate orders the document's formulas by dependency, runs them against
// inputs, and returns the result with a fresh run id. The document must be
// normalized. A non-nil Warning means the resolver broke a dependency
// deadlock and the ordering of the listed formulas is best-effort.
func (e *Engine) Evaluate(doc *types.Document, inputs map[string]any) (*RunResult, error) {
	ordered, warning := resolver.Order(doc.Formulas)

	start := time.Now()
	outputs, err := e.Run(ordered, inputs)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		RunID:   types.NewRunID(),
		Outputs: outputs,
		Warning: warning,
		Elapsed: time.Since(start),
	}, nil
}
