package paycode

import (
	"strings"
	"testing"
)

func TestGenerateShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(code) != Length {
			t.Fatalf("Expected %d characters, got %q", Length, code)
		}
		if !Valid(code) {
			t.Fatalf("Generated code %q outside the alphabet", code)
		}
		if strings.ContainsAny(code, "OIL") {
			t.Fatalf("Generated code %q uses an excluded letter", code)
		}
		seen[code] = true
	}
	if len(seen) < 90 {
		t.Errorf("Expected near-unique codes over 100 draws, got %d distinct", len(seen))
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abcde", "ABCDE"},
		{"A0OIL", "A0011"},
		{" 7kx2m ", "7KX2M"},
		{"oilol", "01101"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValid(t *testing.T) {
	if !Valid("7KX2M") {
		t.Errorf("Expected 7KX2M valid")
	}
	if Valid("7KX2") || Valid("7KX2MM") {
		t.Errorf("Wrong-length codes must be invalid")
	}
	if Valid("7KX2U") {
		t.Errorf("U is outside the alphabet")
	}
	if Valid("7kx2m") {
		t.Errorf("Lowercase must be normalized before validation")
	}
}
