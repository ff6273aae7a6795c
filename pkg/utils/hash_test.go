package utils

import "testing"

func TestHashString(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Simple string", input: "gachibowli"},
		{name: "Empty string", input: ""},
		{name: "Unicode", input: "peak 08:00–11:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HashString(tt.input)
			if len(h) != 40 {
				t.Errorf("Expected 40 hex chars, got %d", len(h))
			}
			if h != HashString(tt.input) {
				t.Error("Expected deterministic hash")
			}
		})
	}
}

func TestHashStringUniqueness(t *testing.T) {
	if HashString("gachibowli") == HashString("ameerpet") {
		t.Error("Expected different hashes for different inputs")
	}
}
