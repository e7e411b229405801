// Package dataset writes and reads labeled sample datasets and summarizes
// their contents.
package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"piigen/internal/logger"
	"piigen/internal/models"
	"piigen/pkg/manifest"
)

// Supported output formats.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// ErrUnknownFormat indicates an output format that is neither json nor jsonl.
var ErrUnknownFormat = errors.New("unknown dataset format (expected json or jsonl)")

// Envelope is the on-disk shape of a JSON dataset that carries its manifest
// inline.
type Envelope struct {
	Manifest *manifest.Manifest   `json:"manifest,omitempty"`
	Samples  []models.InputSample `json:"samples"`
}

// Options control how datasets are written.
type Options struct {
	Format        string
	PrettyPrint   bool
	CreateBackup  bool
	EmbedManifest bool
}

// Writer persists labeled samples.
type Writer struct {
	opts Options
	log  *logger.Logger
}

// NewWriter creates a Writer.
func NewWriter(log *logger.Logger, opts Options) *Writer {
	if opts.Format == "" {
		opts.Format = FormatJSON
	}

	return &Writer{
		opts: opts,
		log:  log,
	}
}

// Write emits the samples to path. A JSON dataset embeds the manifest when
// configured to; otherwise, and always for JSONL, the manifest lands in a
// sidecar file next to the dataset.
func (w *Writer) Write(path string, samples []models.InputSample, m *manifest.Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if w.opts.CreateBackup {
		if err := w.backupExisting(path); err != nil {
			return err
		}
	}

	var (
		embedded bool
		err      error
	)

	switch w.opts.Format {
	case FormatJSON:
		embedded = w.opts.EmbedManifest && m != nil
		err = w.writeJSON(path, samples, m, embedded)
	case FormatJSONL:
		err = w.writeJSONL(path, samples)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, w.opts.Format)
	}

	if err != nil {
		return err
	}

	if m != nil && !embedded {
		if err := w.writeManifest(path, m); err != nil {
			return err
		}
	}

	w.log.Info("dataset written", "path", path, "samples", len(samples), "format", w.opts.Format)

	return nil
}

func (w *Writer) writeJSON(path string, samples []models.InputSample, m *manifest.Manifest, embed bool) error {
	var (
		payload any = samples
		data    []byte
		err     error
	)

	if embed {
		payload = Envelope{Manifest: m, Samples: samples}
	}

	if w.opts.PrettyPrint {
		data, err = json.MarshalIndent(payload, "", "  ")
	} else {
		data, err = json.Marshal(payload)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	return nil
}

func (w *Writer) writeJSONL(path string, samples []models.InputSample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer f.Close()

	buffered := bufio.NewWriter(f)
	encoder := json.NewEncoder(buffered)

	for i := range samples {
		if err := encoder.Encode(&samples[i]); err != nil {
			return fmt.Errorf("failed to encode sample %d: %w", i, err)
		}
	}

	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("failed to flush dataset file: %w", err)
	}

	return nil
}

func (w *Writer) writeManifest(path string, m *manifest.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	sidecar := ManifestPath(path)
	if err := os.WriteFile(sidecar, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	w.log.Debug("manifest written", "path", sidecar)

	return nil
}

// backupExisting moves an existing dataset aside before overwriting it.
func (w *Writer) backupExisting(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	backup := path + ".bak"
	if err := os.Rename(path, backup); err != nil {
		return fmt.Errorf("failed to back up previous dataset: %w", err)
	}

	w.log.Debug("previous dataset backed up", "path", backup)

	return nil
}

// ManifestPath returns the sidecar manifest location for a dataset path.
func ManifestPath(datasetPath string) string {
	return datasetPath + ".manifest.json"
}

// CanonicalContent serializes the labeled core of the samples (text and
// spans, nothing else) deterministically. Manifest hashes are computed over
// this form, so cosmetic output options do not change the hash.
func CanonicalContent(samples []models.InputSample) ([]byte, error) {
	type core struct {
		FullText string        `json:"full_text"`
		Spans    []models.Span `json:"spans"`
	}

	cores := make([]core, len(samples))
	for i, sample := range samples {
		cores[i] = core{FullText: sample.FullText, Spans: sample.Spans}
	}

	data, err := json.Marshal(cores)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize samples: %w", err)
	}

	return data, nil
}
