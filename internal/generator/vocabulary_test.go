package generator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeVocabulary(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vocabulary.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write vocabulary file: %v", err)
	}

	return path
}

func TestLoadVocabulary(t *testing.T) {
	path := writeVocabulary(t, "RANK,WORD\n1,the\n2,Meeting\n3,agenda\n")

	vocab, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("LoadVocabulary() unexpected error: %v", err)
	}

	if vocab.Len() != 3 {
		t.Errorf("Len() = %d, want 3", vocab.Len())
	}

	tests := []struct {
		token string
		want  bool
	}{
		{token: "the", want: true},
		{token: "The", want: true},
		{token: "MEETING", want: true},
		{token: "agenda", want: true},
		{token: "zorblatt", want: false},
	}

	for _, tt := range tests {
		if got := vocab.Contains(tt.token); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestLoadVocabularyMissingColumn(t *testing.T) {
	path := writeVocabulary(t, "RANK,TERM\n1,the\n")

	if _, err := LoadVocabulary(path); !errors.Is(err, ErrMissingWordColumn) {
		t.Errorf("LoadVocabulary() error = %v, want ErrMissingWordColumn", err)
	}
}

func TestLoadVocabularyMissingFile(t *testing.T) {
	if _, err := LoadVocabulary(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("LoadVocabulary() expected an error for a missing file")
	}
}
