package types

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Context is the mutable name-to-value store threaded through one evaluation.
// Keys preserve insertion order so output serialization is deterministic and
// mirrors execution order. A Context is exclusively owned by one in-flight
// evaluation and must never be shared across goroutines.
type Context struct {
	keys   []string
	values map[string]any
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// NewContextFromInputs seeds a context with the external input mapping.
// Input keys are canonicalized and inserted in sorted order so two
// evaluations of the same inputs produce identical contexts.
func NewContextFromInputs(inputs map[string]any) *Context {
	ctx := NewContext()
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ctx.Set(name, inputs[name])
	}
	return ctx
}

// Set writes a value under the canonical form of name.
// First write of a key fixes its position in the output order.
func (c *Context) Set(name string, v any) {
	key := CanonicalName(name)
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = v
}

// Get reads the value stored under the canonical form of name.
func (c *Context) Get(name string) (any, bool) {
	v, ok := c.values[CanonicalName(name)]
	return v, ok
}

// Has reports whether a slot exists for the canonical form of name.
func (c *Context) Has(name string) bool {
	_, ok := c.values[CanonicalName(name)]
	return ok
}

// Keys returns the slot names in insertion order.
func (c *Context) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of slots.
func (c *Context) Len() int { return len(c.keys) }

// Map returns a flat copy of the context.
func (c *Context) Map() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Equal reports whether two contexts hold the same keys and values,
// ignoring insertion order. Used by round-trip verification.
func (c *Context) Equal(other *Context) bool {
	if len(c.values) != len(other.values) {
		return false
	}
	for k, v := range c.values {
		ov, ok := other.values[k]
		if !ok {
			return false
		}
		a, _ := json.Marshal(v)
		b, _ := json.Marshal(ov)
		if !bytes.Equal(a, b) {
			return false
		}
	}
	return true
}

// MarshalJSON serializes the context as an object with keys in insertion
// order, so CLI output reads in execution order rather than map order.
func (c *Context) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(c.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
