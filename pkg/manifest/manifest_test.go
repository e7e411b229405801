package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildAndVerify(t *testing.T) {
	content := []byte(`[{"full_text":"My name is Ana Costa."}]`)

	m := Build(content, 1, 42, map[string]string{"templates": "abc123"})

	if m.Version != Version {
		t.Errorf("Version = %q, want %q", m.Version, Version)
	}

	if m.SampleCount != 1 || m.Seed != 42 {
		t.Errorf("counts = %d/%d, want 1/42", m.SampleCount, m.Seed)
	}

	if len(m.Hash) != 64 {
		t.Errorf("Hash length = %d, want 64 hex characters", len(m.Hash))
	}

	if err := m.Verify(content); err != nil {
		t.Errorf("Verify() unexpected error: %v", err)
	}
}

func TestVerifyMismatch(t *testing.T) {
	m := Build([]byte("original content"), 1, 1, nil)

	if err := m.Verify([]byte("tampered content")); !errors.Is(err, ErrHashMismatch) {
		t.Errorf("Verify() error = %v, want ErrHashMismatch", err)
	}
}

func TestVerifyMissing(t *testing.T) {
	var m *Manifest

	if err := m.Verify([]byte("content")); !errors.Is(err, ErrNoManifest) {
		t.Errorf("Verify() on nil manifest error = %v, want ErrNoManifest", err)
	}

	empty := &Manifest{Version: Version}
	if err := empty.Verify([]byte("content")); !errors.Is(err, ErrNoHash) {
		t.Errorf("Verify() without hash error = %v, want ErrNoHash", err)
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.txt")
	if err := os.WriteFile(path, []byte("My name is [PERSON].\n"), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	first, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() unexpected error: %v", err)
	}

	if first != HashBytes([]byte("My name is [PERSON].\n")) {
		t.Error("HashFile() does not match HashBytes() of the same content")
	}

	if _, err := HashFile(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("HashFile() expected an error for a missing file")
	}
}
