package search

import (
	"slices"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  \t\n ", nil},
		{"punctuation only", "!!! --- ???", nil},
		{"lower-cases", "Go Engineer", []string{"go", "engineer"}},
		{"splits on punctuation", "full-time/remote", []string{"full", "time", "remote"}},
		{"collapses separators", "  c++   and   c# ", []string{"c", "and", "c"}},
		{"keeps digits", "Web3 K8s", []string{"web3", "k8s"}},
		{"non-ascii is a separator", "café-bar", []string{"caf", "bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeField(t *testing.T) {
	if got := NormalizeField("  Senior  Go-Engineer!  "); got != "senior go engineer" {
		t.Errorf("NormalizeField() = %q", got)
	}
	if got := NormalizeField("***"); got != "" {
		t.Errorf("NormalizeField(***) = %q, want empty", got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Senior Go Engineer",
		"  MIXED case, with; punctuation!! ",
		"ünïcödé and ASCII",
		"tabs\tand\nnewlines",
		"a--b__c//d",
	}

	for _, input := range inputs {
		once := NormalizeField(input)
		twice := NormalizeField(once)
		if once != twice {
			t.Errorf("NormalizeField not idempotent for %q: %q then %q", input, once, twice)
		}
		if !slices.Equal(Normalize(once), Normalize(input)) {
			t.Errorf("Normalize not idempotent for %q", input)
		}
	}
}
