package language

import (
	"testing"
)

func TestToISO3(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		// 2-letter codes convert
		{"en", "eng", true},
		{"EN", "eng", true},
		{"ja", "jpn", true},
		// 3-letter codes pass through in terminology form
		{"eng", "eng", true},
		{"spa", "spa", true},
		{"fre", "fra", true},
		{"ger", "deu", true},
		// English names
		{"english", "eng", true},
		{"French", "fra", true},
		{"GERMAN", "deu", true},
		// Unrecognized
		{"e1g", "", false},
		{"klingonish", "", false},
		{"", "", false},
		{" ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, ok := ToISO3(tt.input)
			if result != tt.expected || ok != tt.ok {
				t.Errorf("ToISO3(%q) = %q, %v; want %q, %v", tt.input, result, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"deu", "German"},
		{"french", "French"},
		{"", "Unknown"},
		{"zz9", "ZZ9"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DisplayName(tt.input); got != tt.expected {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
