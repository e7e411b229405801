package textutil

import "testing"

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Collapses runs", input: "a  b\t\tc", expected: "a b c"},
		{name: "Trims edges", input: "  hello world \n", expected: "hello world"},
		{name: "Newlines become spaces", input: "line one\nline two", expected: "line one line two"},
		{name: "Empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeWhitespace(tt.input); got != tt.expected {
				t.Errorf("NormalizeWhitespace() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 4); got != "abcd..." {
		t.Errorf("Truncate() = %q, want %q", got, "abcd...")
	}

	if got := Truncate("abc", 4); got != "abc" {
		t.Errorf("Truncate() = %q, want %q", got, "abc")
	}
}

func TestSwapBrackets(t *testing.T) {
	if got := SwapBrackets("Acme [Holdings] Ltd"); got != "Acme (Holdings) Ltd" {
		t.Errorf("SwapBrackets() = %q", got)
	}
}

func TestStartsWithVowel(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"Ivan", true},
		{"apple", true},
		{"Oscar", true},
		{"Maria", false},
		{"", false},
		{"123", false},
	}

	for _, tt := range tests {
		if got := StartsWithVowel(tt.input); got != tt.expected {
			t.Errorf("StartsWithVowel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("new york"); got != "New York" {
		t.Errorf("TitleCase() = %q, want %q", got, "New York")
	}
}

func TestFoldKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{" Hello ", "hello"},
		{"ＡＢＣ", "abc"},
		{"Straße", "straße"},
	}

	for _, tt := range tests {
		if got := FoldKey(tt.input); got != tt.expected {
			t.Errorf("FoldKey(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTrimIndex(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"PERSON2", "PERSON"},
		{"LOCATION15", "LOCATION"},
		{"PERSON", "PERSON"},
		{"US_SSN", "US_SSN"},
	}

	for _, tt := range tests {
		if got := TrimIndex(tt.input); got != tt.expected {
			t.Errorf("TrimIndex(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
