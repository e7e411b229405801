// Package corpus loads annotated text corpora and enforces their span
// invariants before extraction.
package corpus

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"piigen/internal/logger"
	"piigen/internal/models"
)

// Reader errors.
var (
	ErrEmptyCorpus       = errors.New("corpus contains no rows")
	ErrUnsupportedFormat = errors.New("unsupported corpus format (expected jsonl, json or csv)")
	ErrMissingTextColumn = errors.New("csv corpus requires a 'text' column")
)

// defaultBufferKb bounds single JSONL lines; full email bodies can run long.
const defaultBufferKb = 1024

// rowEnvelope is the on-disk shape of one corpus row. Either "text" or
// "full_text" carries the content, matching the dataset export format.
type rowEnvelope struct {
	Text     string        `json:"text"`
	FullText string        `json:"full_text"`
	Spans    []models.Span `json:"spans"`
	Source   string        `json:"source"`
}

func (e *rowEnvelope) content() string {
	if e.Text != "" {
		return e.Text
	}

	return e.FullText
}

// Reader loads corpus rows from the supported container formats.
type Reader struct {
	log      *logger.Logger
	bufferKb int
}

// NewReader creates a corpus reader with the default line buffer.
func NewReader(log *logger.Logger) *Reader {
	return NewReaderWithBuffer(log, defaultBufferKb)
}

// NewReaderWithBuffer creates a corpus reader with a custom line buffer size
// in kilobytes.
func NewReaderWithBuffer(log *logger.Logger, bufferKb int) *Reader {
	if bufferKb < 1 {
		bufferKb = defaultBufferKb
	}

	return &Reader{log: log, bufferKb: bufferKb}
}

// LoadFile reads a corpus file, inferring the format from the extension.
func (r *Reader) LoadFile(path string) ([]models.CorpusRow, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}

	return r.Load(data, format, filepath.Base(path))
}

// Load parses corpus rows out of raw bytes in the given format. The source
// label is attached to every row for provenance.
func (r *Reader) Load(data []byte, format, source string) ([]models.CorpusRow, error) {
	var (
		rows []models.CorpusRow
		err  error
	)

	switch strings.ToLower(format) {
	case "jsonl", "ndjson":
		rows, err = r.loadJSONL(data, source)
	case "json":
		rows, err = r.loadJSON(data, source)
	case "csv":
		rows, err = r.loadCSV(data, source)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrEmptyCorpus
	}

	r.log.Debug("Corpus loaded", "source", source, "format", format, "rows", len(rows))

	return rows, nil
}

func (r *Reader) loadJSONL(data []byte, source string) ([]models.CorpusRow, error) {
	var rows []models.CorpusRow

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), r.bufferKb*1024)

	lineNum := 0

	for scanner.Scan() {
		lineNum++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var env rowEnvelope
		if err := json.Unmarshal(line, &env); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", lineNum, err)
		}

		rows = append(rows, r.buildRow(&env, len(rows), source))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan corpus: %w", err)
	}

	return rows, nil
}

func (r *Reader) loadJSON(data []byte, source string) ([]models.CorpusRow, error) {
	var envelopes []rowEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, fmt.Errorf("failed to parse JSON corpus: %w", err)
	}

	rows := make([]models.CorpusRow, 0, len(envelopes))
	for i := range envelopes {
		rows = append(rows, r.buildRow(&envelopes[i], len(rows), source))
	}

	return rows, nil
}

// loadCSV parses a header-driven CSV corpus. Annotation exports vary in
// quoting discipline, so the reader is configured tolerantly.
func (r *Reader) loadCSV(data []byte, source string) ([]models.CorpusRow, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	textCol, spansCol, sourceCol := -1, -1, -1

	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "text", "full_text":
			textCol = i
		case "spans":
			spansCol = i
		case "source":
			sourceCol = i
		}
	}

	if textCol < 0 {
		return nil, ErrMissingTextColumn
	}

	if spansCol < 0 {
		r.log.Warn("CSV corpus has no 'spans' column, all rows load unlabeled", "source", source)
	}

	var rows []models.CorpusRow

	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", lineNum, err)
		}

		lineNum++

		if textCol >= len(record) {
			continue
		}

		env := rowEnvelope{Text: record[textCol]}

		if spansCol >= 0 && spansCol < len(record) && strings.TrimSpace(record[spansCol]) != "" {
			if err := json.Unmarshal([]byte(record[spansCol]), &env.Spans); err != nil {
				return nil, fmt.Errorf("invalid spans JSON on csv row %d: %w", lineNum, err)
			}
		}

		if sourceCol >= 0 && sourceCol < len(record) {
			env.Source = record[sourceCol]
		}

		rows = append(rows, r.buildRow(&env, len(rows), source))
	}

	return rows, nil
}

func (r *Reader) buildRow(env *rowEnvelope, id int, source string) models.CorpusRow {
	rowSource := env.Source
	if rowSource == "" {
		rowSource = source
	}

	return models.CorpusRow{
		ID:     id,
		Text:   env.content(),
		Spans:  env.Spans,
		Source: rowSource,
	}
}

// FilterLabeled keeps only rows that carry at least one span and reports how
// many were dropped.
func (r *Reader) FilterLabeled(rows []models.CorpusRow) ([]models.CorpusRow, int) {
	labeled := make([]models.CorpusRow, 0, len(rows))

	for _, row := range rows {
		if row.Labeled() {
			labeled = append(labeled, row)
		}
	}

	dropped := len(rows) - len(labeled)
	if dropped > 0 {
		r.log.Info("Filtered unlabeled rows", "kept", len(labeled), "dropped", dropped)
	}

	return labeled, dropped
}
