// Package catalog implements the name-to-callable function registry consumed
// by the expression evaluator and the dispatch engine.
//
// Handlers are pure value-in/value-out functions over positional arguments;
// no handler receives context access, so registration order and evaluation
// order can never interact. The registry is guarded by an RWMutex: reads
// dominate (every Call), writes happen only when a caller registers custom
// functions at runtime.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/quarterbit/formulary/internal/types"
)

// Handler is a pure function over positional arguments.
type Handler func(args []any) (any, error)

// Metadata describes a registered function for discovery surfaces.
type Metadata struct {
	Name        string
	Category    string
	Params      string // human-readable parameter shape
	Returns     string
	Description string
	MinArgs     int
	MaxArgs     int // -1 means variadic
}

type entry struct {
	meta Metadata
	fn   Handler
}

// Catalog is a thread-safe function registry.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]entry)}
}

// NewWithBuiltins returns a catalog pre-loaded with the arithmetic,
// statistics, business, and utility categories.
func NewWithBuiltins() *Catalog {
	c := New()
	registerArithmetic(c)
	registerStatistics(c)
	registerBusiness(c)
	registerUtility(c)
	return c
}

// Register binds name to fn. Re-registering a name replaces the previous
// binding; registration is idempotent per name.
func (c *Catalog) Register(name string, fn Handler, meta Metadata) {
	meta.Name = name
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = entry{meta: meta, fn: fn}
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[name]
	return ok
}

// Call invokes the named function after validating arity.
// Unknown names fail with UnknownFunctionError listing registered names.
func (c *Catalog) Call(name string, args []any) (any, error) {
	c.mu.RLock()
	e, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		return nil, &types.UnknownFunctionError{Name: name, Available: c.Names()}
	}
	if len(args) < e.meta.MinArgs {
		return nil, fmt.Errorf("function %q expects at least %d arguments, got %d", name, e.meta.MinArgs, len(args))
	}
	if e.meta.MaxArgs >= 0 && len(args) > e.meta.MaxArgs {
		return nil, fmt.Errorf("function %q expects at most %d arguments, got %d", name, e.meta.MaxArgs, len(args))
	}
	return e.fn(args)
}

// Names returns all registered names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns metadata for every registered function, sorted by category
// then name.
func (c *Catalog) List() []Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Metadata, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.meta)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// numericArgs coerces every argument to float64 or fails naming the
// offending position.
func numericArgs(name string, args []any) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		n, ok := types.ToNumber(a)
		if !ok {
			return nil, fmt.Errorf("function %q: argument %d is not numeric (%v)", name, i+1, a)
		}
		out[i] = n
	}
	return out, nil
}
