package codegen

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/quarterbit/formulary/internal/types"
)

// Backend renders a lowered Program as source text in one target language.
type Backend interface {
	// Target names the language this back end emits.
	Target() string

	// Generate renders p as one self-contained function taking the input
	// mapping and returning the full output mapping.
	Generate(p *Program) (string, error)
}

// ForTarget returns the back end for a target name, accepting the long
// names and their usual abbreviations.
func ForTarget(name string) (Backend, error) {
	switch strings.ToLower(name) {
	case "javascript", "js":
		return &JavaScript{}, nil
	case "python", "py":
		return &Python{}, nil
	default:
		return nil, &types.CodegenError{Target: name, Reason: "unsupported target language"}
	}
}

// Targets lists the supported target names.
func Targets() []string {
	return []string{"javascript", "python"}
}

// sortedKeys returns m's keys sorted, so rendered literals and auxiliary
// assignments are deterministic across runs.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatNumber renders a float the shortest way that round-trips, matching
// how both targets print their own floats closely enough for literals.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// quoteString renders a string literal valid in both targets (JSON escapes
// are a subset of both languages' escape syntax).
func quoteString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
