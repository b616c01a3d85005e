package types

import (
	"reflect"
	"testing"
)

func TestContext_SigilAndBareShareSlot(t *testing.T) {
	ctx := NewContext()
	ctx.Set("$income", 50000.0)

	if v, ok := ctx.Get("income"); !ok || v != 50000.0 {
		t.Errorf("Get(income) = %v, %v, want 50000, true", v, ok)
	}
	if v, ok := ctx.Get("$income"); !ok || v != 50000.0 {
		t.Errorf("Get($income) = %v, %v, want 50000, true", v, ok)
	}
	if !ctx.Has("income") {
		t.Error("Has(income) = false, want true")
	}
	if ctx.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (sigil and bare name share one slot)", ctx.Len())
	}
}

func TestContext_InsertionOrder(t *testing.T) {
	ctx := NewContext()
	ctx.Set("c", 1.0)
	ctx.Set("a", 2.0)
	ctx.Set("b", 3.0)
	ctx.Set("a", 4.0) // rewrite keeps original position

	want := []string{"c", "a", "b"}
	if got := ctx.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if v, _ := ctx.Get("a"); v != 4.0 {
		t.Errorf("Get(a) = %v, want 4 after rewrite", v)
	}
}

func TestContext_FromInputsSorted(t *testing.T) {
	ctx := NewContextFromInputs(map[string]any{
		"zeta": 1.0, "alpha": 2.0, "mid": 3.0,
	})
	want := []string{"alpha", "mid", "zeta"}
	if got := ctx.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want sorted %v", got, want)
	}
}

func TestContext_MarshalJSONOrder(t *testing.T) {
	ctx := NewContext()
	ctx.Set("second", 2.0)
	ctx.Set("first", 1.0)

	data, err := ctx.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v, want nil", err)
	}
	want := `{"second":2,"first":1}`
	if string(data) != want {
		t.Errorf("MarshalJSON() = %s, want %s", data, want)
	}
}

func TestContext_Equal(t *testing.T) {
	a := NewContext()
	a.Set("x", 1.0)
	a.Set("y", map[string]any{"score": 5.0})

	b := NewContext()
	b.Set("y", map[string]any{"score": 5.0})
	b.Set("x", 1.0)

	if !a.Equal(b) {
		t.Error("Equal() = false for same contents in different insertion order")
	}

	b.Set("x", 2.0)
	if a.Equal(b) {
		t.Error("Equal() = true for differing values")
	}

	c := NewContext()
	c.Set("x", 1.0)
	if a.Equal(c) {
		t.Error("Equal() = true for differing key sets")
	}
}

func TestContext_MapIsCopy(t *testing.T) {
	ctx := NewContext()
	ctx.Set("x", 1.0)
	m := ctx.Map()
	m["x"] = 99.0
	if v, _ := ctx.Get("x"); v != 1.0 {
		t.Errorf("Get(x) = %v after mutating Map() copy, want 1", v)
	}
}
