package types

import (
	"testing"
)

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"income", "income"},
		{"$income", "income"},
		{"  $income  ", "income"},
		{"  income", "income"},
		{"$", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CanonicalName(tt.in); got != tt.want {
			t.Errorf("CanonicalName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsReference(t *testing.T) {
	if !IsReference("$income") {
		t.Error("IsReference($income) = false, want true")
	}
	if IsReference("income") {
		t.Error("IsReference(income) = true, want false")
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float64", 3.5, 3.5, true},
		{"int", 3, 3, true},
		{"int64", int64(3), 3, true},
		{"bool true", true, 1, true},
		{"bool false", false, 0, true},
		{"numeric string", "4.25", 4.25, true},
		{"padded numeric string", "  7 ", 7, true},
		{"negative string", "-2", -2, true},
		{"text", "gold", 0, false},
		{"empty string", "", 0, false},
		{"whitespace string", "   ", 0, false},
		{"nil", nil, 0, false},
		{"map", map[string]any{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToNumber(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ToNumber(%v) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestToBool(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
		ok   bool
	}{
		{"bool", true, true, true},
		{"string true", "true", true, true},
		{"string TRUE", "TRUE", true, true},
		{"string false", "false", false, true},
		{"other string", "yes", false, false},
		{"nonzero number", 2.0, true, true},
		{"zero number", 0.0, false, true},
		{"nil", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToBool(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ToBool(%v) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "gold", "gold"},
		{"whole float", 5.0, "5"},
		{"fraction", 2.5, "2.5"},
		{"bool", true, "true"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToString(tt.in); got != tt.want {
				t.Errorf("ToString(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
