package foodkb

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Pad Thai", "pad thai"},
		{"Crêpe!", "crepe"},
		{"PÂTÉ de Foie", "pate de foie"},
		{"bibim-bap", "bibim bap"},
		{"stir/fry noodles", "stir fry noodles"},
		{"  tom    yum  ", "tom yum"},
		{"café au lait", "cafe au lait"},
		{"(seasonal)", "seasonal"},
		{"김치찌개", "김치찌개"},
		{"Sōmen", "somen"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		got := Normalize(tt.input)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Pad Thai", "Crêpe!", "bibim-bap", "김치찌개", "  tom    yum  ", ""}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}
