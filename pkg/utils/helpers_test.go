package utils

import "testing"

func TestRandomHexLengthAndUniqueness(t *testing.T) {
	a, err := RandomHex(16)
	if err != nil {
		t.Fatalf("random hex: %v", err)
	}
	b, _ := RandomHex(16)
	if len(a) != 32 {
		t.Fatalf("expected 32 chars, got %d", len(a))
	}
	if a == b {
		t.Fatalf("expected distinct tokens")
	}
}
