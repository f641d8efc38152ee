package id

import (
	"encoding/hex"
	"strings"
	"testing"
)

func TestNew_FormatAndDecode(t *testing.T) {
	got := New()

	if len(got) != 32 {
		t.Fatalf("length = %d, want 32 (got=%q)", len(got), got)
	}
	if !Valid(got) {
		t.Fatalf("not 32-char lowercase hex: %q", got)
	}
	b, err := hex.DecodeString(got)
	if err != nil {
		t.Fatalf("hex.DecodeString error: %v", err)
	}
	if len(b) != 16 {
		t.Fatalf("decoded bytes = %d, want 16", len(b))
	}
}

func TestNew_Uniqueness(t *testing.T) {
	const n = 200
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		v := New()
		if _, ok := seen[v]; ok {
			t.Fatalf("duplicate id after %d iterations: %q", i, v)
		}
		seen[v] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{strings.Repeat("a", 32), true},
		{"0123456789abcdef0123456789abcdef", true},
		{strings.Repeat("A", 32), false},
		{strings.Repeat("a", 31), false},
		{strings.Repeat("a", 33), false},
		{"0123456789abcdef-123456789abcdef", false},
		{"0123456789abcdeg0123456789abcdef", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Valid(tc.in); got != tc.want {
			t.Errorf("Valid(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
