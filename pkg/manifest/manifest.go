// Package manifest provides provenance records for emitted datasets. A
// manifest pins the content hash, the sample count and the inputs a dataset
// was built from, so a downstream training run can verify what it reads.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Version is the manifest layout version.
const Version = "1"

// Verification errors.
var (
	ErrNoManifest   = errors.New("no manifest present")
	ErrNoHash       = errors.New("manifest carries no content hash")
	ErrHashMismatch = errors.New("content hash mismatch")
)

// Manifest describes one emitted dataset.
type Manifest struct {
	Version      string            `json:"version"`
	CreatedAt    time.Time         `json:"created_at"`
	Seed         int64             `json:"seed"`
	SampleCount  int               `json:"sample_count"`
	SourceHashes map[string]string `json:"source_hashes,omitempty"`
	Hash         string            `json:"hash"`
}

// HashBytes computes the hex-encoded SHA-256 hash of content.
func HashBytes(content []byte) string {
	hash := sha256.Sum256(content)

	return hex.EncodeToString(hash[:])
}

// HashFile computes the hex-encoded SHA-256 hash of a file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Build creates a manifest over canonical dataset content. The source hashes
// record the inputs (corpus, identity file, templates) the dataset was
// derived from.
func Build(content []byte, sampleCount int, seed int64, sourceHashes map[string]string) *Manifest {
	return &Manifest{
		Version:      Version,
		CreatedAt:    time.Now().UTC(),
		Seed:         seed,
		SampleCount:  sampleCount,
		SourceHashes: sourceHashes,
		Hash:         HashBytes(content),
	}
}

// Verify checks canonical dataset content against the manifest's hash.
func (m *Manifest) Verify(content []byte) error {
	if m == nil {
		return ErrNoManifest
	}

	if m.Hash == "" {
		return ErrNoHash
	}

	if HashBytes(content) != m.Hash {
		return ErrHashMismatch
	}

	return nil
}
