// Package extractor turns annotated corpus rows into placeholder templates
// and collects the labeled values they contained.
package extractor

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"

	"piigen/internal/logger"
	"piigen/internal/models"
	"piigen/pkg/textutil"
)

// ContextFull keeps the whole row text; ContextSentence cuts templates down
// to the sentences that contain a placeholder.
const (
	ContextFull     = "full"
	ContextSentence = "sentence"
)

var markerPattern = regexp.MustCompile(`\[[A-Z_0-9]+\]`)

// Options control template extraction.
type Options struct {
	Placeholder string
	Context     string
	MinLength   int
	MaxLength   int
	Dedupe      bool
}

// ExtractedValue is one labeled value cut out of a corpus row.
type ExtractedValue struct {
	EntityType string
	Value      string
	RowID      int
}

// Report counts what happened during extraction.
type Report struct {
	RowsProcessed     int
	SpansReplaced     int
	ValuesExtracted   int
	TemplatesEmitted  int
	TemplatesDeduped  int
	TemplatesTooShort int
	TemplatesTooLong  int
}

// Result holds the extraction output for a corpus.
type Result struct {
	Templates []string
	Values    []ExtractedValue
	Report    Report
}

// Extractor splices labeled spans out of corpus rows.
type Extractor struct {
	opts Options
	log  *logger.Logger
}

// New creates an extractor. An empty placeholder defaults to ADDRESS and an
// empty context to full-text templates.
func New(log *logger.Logger, opts Options) *Extractor {
	if opts.Placeholder == "" {
		opts.Placeholder = "ADDRESS"
	}

	if opts.Context == "" {
		opts.Context = ContextFull
	}

	return &Extractor{opts: opts, log: log}
}

// ExtractRow replaces every span in the row with its placeholder marker,
// back to front so earlier offsets stay valid, and returns the template
// along with the extracted values.
func (e *Extractor) ExtractRow(row *models.CorpusRow) (string, []ExtractedValue) {
	template := row.Text
	values := make([]ExtractedValue, 0, len(row.Spans))

	for i := len(row.Spans) - 1; i >= 0; i-- {
		span := row.Spans[i]

		value := span.EntityValue
		if value == "" {
			value = row.Text[span.StartPosition:span.EndPosition]
		}

		values = append(values, ExtractedValue{
			EntityType: e.markerFor(span),
			Value:      value,
			RowID:      row.ID,
		})

		template = template[:span.StartPosition] + "[" + e.markerFor(span) + "]" + template[span.EndPosition:]
	}

	// Reverse so values follow span order.
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}

	return template, values
}

func (e *Extractor) markerFor(span models.Span) string {
	if span.EntityType != "" {
		return span.EntityType
	}

	return e.opts.Placeholder
}

// Extract processes all rows: splice spans, trim to context, normalize
// whitespace, filter by length and dedupe.
func (e *Extractor) Extract(rows []models.CorpusRow) *Result {
	result := &Result{}
	seen := make(map[string]bool)

	for i := range rows {
		row := &rows[i]
		result.Report.RowsProcessed++
		result.Report.SpansReplaced += len(row.Spans)

		spliced, values := e.ExtractRow(row)
		result.Values = append(result.Values, values...)
		result.Report.ValuesExtracted += len(values)

		for _, candidate := range e.candidates(spliced) {
			template := textutil.NormalizeWhitespace(candidate)

			if e.opts.MinLength > 0 && len(template) < e.opts.MinLength {
				result.Report.TemplatesTooShort++
				continue
			}

			if e.opts.MaxLength > 0 && len(template) > e.opts.MaxLength {
				result.Report.TemplatesTooLong++
				continue
			}

			if e.opts.Dedupe {
				if seen[template] {
					result.Report.TemplatesDeduped++
					continue
				}

				seen[template] = true
			}

			result.Templates = append(result.Templates, template)
			result.Report.TemplatesEmitted++
		}
	}

	e.log.Info("Extraction complete",
		"rows", result.Report.RowsProcessed,
		"templates", result.Report.TemplatesEmitted,
		"values", result.Report.ValuesExtracted,
		"deduped", result.Report.TemplatesDeduped,
	)

	return result
}

// candidates cuts one spliced text into template candidates according to the
// context mode. In sentence mode every sentence carrying a marker becomes
// its own template.
func (e *Extractor) candidates(spliced string) []string {
	if e.opts.Context != ContextSentence {
		return []string{spliced}
	}

	var out []string

	segs := sentences.FromString(spliced)
	for segs.Next() {
		sentence := segs.Value()
		if markerPattern.MatchString(sentence) {
			out = append(out, sentence)
		}
	}

	return out
}

// WriteTemplates writes templates one per line, creating parent directories.
func WriteTemplates(path string, tmpls []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var sb strings.Builder

	for _, tmpl := range tmpls {
		sb.WriteString(tmpl)
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write templates: %w", err)
	}

	return nil
}

// ReadValues loads a values CSV back into per-entity pools, the shape the
// identity preparer consumes.
func ReadValues(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open values file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read values file: %w", err)
	}

	pools := make(map[string][]string)

	for i, record := range records {
		if i == 0 || len(record) < 2 {
			continue
		}

		entity := strings.TrimSpace(record[0])
		if entity == "" {
			continue
		}

		pools[entity] = append(pools[entity], record[1])
	}

	return pools, nil
}

// WriteValues writes extracted values as CSV with an entity_type,value,row_id
// header. The file feeds the generator's real-value pools.
func WriteValues(path string, values []ExtractedValue) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create values file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write([]string{"entity_type", "value", "row_id"}); err != nil {
		return fmt.Errorf("failed to write values header: %w", err)
	}

	for _, v := range values {
		record := []string{v.EntityType, v.Value, fmt.Sprintf("%d", v.RowID)}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write value row: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush values: %w", err)
	}

	return nil
}
