package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPrep(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Brackets become braces",
			input:    "My name is [PERSON]",
			expected: "My name is {PERSON}",
		},
		{
			name:     "Whitespace trimmed",
			input:    "  Hello [ADDRESS] \n",
			expected: "Hello {ADDRESS}",
		},
		{
			name:     "No markers",
			input:    "Plain text",
			expected: "Plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Prep(tt.input); got != tt.expected {
				t.Errorf("Prep() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParse_SingleEntity(t *testing.T) {
	tmpl, err := Parse(0, "I live at [ADDRESS].")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if tmpl.Text != "I live at {ADDRESS}." {
		t.Errorf("Text = %q", tmpl.Text)
	}

	if diff := cmp.Diff([]string{"ADDRESS"}, tmpl.Entities); diff != "" {
		t.Errorf("Entities mismatch (-want +got):\n%s", diff)
	}

	if tmpl.Counts["ADDRESS"] != 1 {
		t.Errorf("Counts[ADDRESS] = %d, want 1", tmpl.Counts["ADDRESS"])
	}
}

func TestParse_DuplicateEntities(t *testing.T) {
	tmpl, err := Parse(3, "[PERSON] met [PERSON] and [PERSON] at [LOCATION].")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	wantText := "{PERSON} met {PERSON2} and {PERSON3} at {LOCATION}."
	if tmpl.Text != wantText {
		t.Errorf("Text = %q, want %q", tmpl.Text, wantText)
	}

	wantEntities := []string{"PERSON", "PERSON2", "PERSON3", "LOCATION"}
	if diff := cmp.Diff(wantEntities, tmpl.Entities); diff != "" {
		t.Errorf("Entities mismatch (-want +got):\n%s", diff)
	}

	if tmpl.Counts["PERSON"] != 3 {
		t.Errorf("Counts[PERSON] = %d, want 3", tmpl.Counts["PERSON"])
	}
}

func TestParse_NoEntities(t *testing.T) {
	tmpl, err := Parse(0, "Just a plain sentence.")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if tmpl.HasEntities() {
		t.Error("Expected no entities")
	}
}

func TestParse_EmptySlot(t *testing.T) {
	_, err := Parse(0, "Broken [] slot")
	if !errors.Is(err, ErrEmptySlot) {
		t.Fatalf("Expected ErrEmptySlot, got %v", err)
	}
}

func TestParse_UnmatchedBrace(t *testing.T) {
	_, err := Parse(0, "Broken [ADDRESS slot")
	if !errors.Is(err, ErrUnmatchedBrace) {
		t.Fatalf("Expected ErrUnmatchedBrace, got %v", err)
	}
}

func TestParse_LowercaseNotASlot(t *testing.T) {
	// Lower-case bracket content is not a placeholder marker.
	_, err := Parse(0, "See [footnote] for details")
	if !errors.Is(err, ErrUnmatchedBrace) {
		t.Fatalf("Expected ErrUnmatchedBrace for non-slot brackets, got %v", err)
	}
}

func TestLoadBytes(t *testing.T) {
	content := `# address templates
I live at [ADDRESS].

Send mail to [PERSON] at [ADDRESS].
`

	parsed, err := LoadBytes([]byte(content))
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}

	if len(parsed) != 2 {
		t.Fatalf("Expected 2 templates, got %d", len(parsed))
	}

	if parsed[0].ID != 0 || parsed[1].ID != 1 {
		t.Errorf("Expected sequential IDs, got %d and %d", parsed[0].ID, parsed[1].ID)
	}
}

func TestLoadBytes_Empty(t *testing.T) {
	_, err := LoadBytes([]byte("# only a comment\n"))
	if !errors.Is(err, ErrNoTemplates) {
		t.Fatalf("Expected ErrNoTemplates, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "templates.txt")

	if err := os.WriteFile(path, []byte("Hi [PERSON]\n"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	parsed, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(parsed) != 1 {
		t.Errorf("Expected 1 template, got %d", len(parsed))
	}
}

func TestEntityBase(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"PERSON", "PERSON"},
		{"PERSON2", "PERSON"},
		{"LOCATION12", "LOCATION"},
		{"US_SSN", "US_SSN"},
	}

	for _, tt := range tests {
		if got := EntityBase(tt.key); got != tt.expected {
			t.Errorf("EntityBase(%q) = %q, want %q", tt.key, got, tt.expected)
		}
	}
}
