package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"piigen/internal/models"
	"piigen/pkg/manifest"
)

// Read loads a dataset file written by Writer. It accepts the enveloped JSON
// shape, a bare JSON array, and JSONL; the manifest is returned when the file
// embeds one, nil otherwise.
func Read(path string) ([]models.InputSample, *manifest.Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		samples, err := readJSONL(content)

		return samples, nil, err
	}

	trimmed := bytes.TrimLeft(content, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope Envelope
		if err := json.Unmarshal(content, &envelope); err != nil {
			return nil, nil, fmt.Errorf("failed to parse dataset envelope: %w", err)
		}

		return envelope.Samples, envelope.Manifest, nil
	}

	var samples []models.InputSample
	if err := json.Unmarshal(content, &samples); err != nil {
		return nil, nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	return samples, nil, nil
}

// ReadManifest loads the sidecar manifest of a dataset, if one exists.
func ReadManifest(datasetPath string) (*manifest.Manifest, error) {
	content, err := os.ReadFile(ManifestPath(datasetPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, manifest.ErrNoManifest
		}

		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m manifest.Manifest
	if err := json.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &m, nil
}

func readJSONL(content []byte) ([]models.InputSample, error) {
	var samples []models.InputSample

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lineNum := 0

	for scanner.Scan() {
		lineNum++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var sample models.InputSample
		if err := json.Unmarshal(line, &sample); err != nil {
			return nil, fmt.Errorf("failed to parse dataset line %d: %w", lineNum, err)
		}

		samples = append(samples, sample)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan dataset: %w", err)
	}

	return samples, nil
}
