package corpus

import (
	"errors"
	"fmt"
	"sort"

	"piigen/internal/models"
)

// Validation errors.
var (
	ErrSpanReversed    = errors.New("span end precedes start")
	ErrSpanEmpty       = errors.New("span is empty")
	ErrSpanOutOfBounds = errors.New("span exceeds text bounds")
	ErrSpansUnsorted   = errors.New("spans are not sorted by start position")
	ErrSpansOverlap    = errors.New("spans overlap")
	ErrValueMismatch   = errors.New("span value does not match text slice")
)

// ValidationError represents a span validation error with row context.
type ValidationError struct {
	RowID     int
	SpanIndex int
	Value     string
	Message   string
}

// ValidationResult contains validation results for a corpus.
type ValidationResult struct {
	Valid    []models.CorpusRow
	Errors   []ValidationError
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// ValidationStats contains validation statistics.
type ValidationStats struct {
	TotalRows    int
	ValidRows    int
	InvalidRows  int
	TotalSpans   int
	SkippedSpans int
}

// Validator enforces the span invariants on corpus rows: spans must be
// non-empty, sorted by start, non-overlapping and within text bounds.
type Validator struct {
	sortSpans  bool
	continueOn bool
}

// NewValidator creates a validator with strict row handling.
func NewValidator() *Validator {
	return &Validator{}
}

// NewValidatorWithOptions creates a validator. With sortSpans, unsorted spans
// are reordered in place instead of rejected. With continueOn, rows that fail
// validation are dropped from the result instead of failing the whole corpus.
func NewValidatorWithOptions(sortSpans, continueOn bool) *Validator {
	return &Validator{sortSpans: sortSpans, continueOn: continueOn}
}

// ValidateRows checks every row and partitions them into valid rows and
// per-row errors.
func (v *Validator) ValidateRows(rows []models.CorpusRow) *ValidationResult {
	result := &ValidationResult{
		IsValid:  true,
		Errors:   []ValidationError{},
		Warnings: []string{},
	}

	for i := range rows {
		row := &rows[i]
		result.Stats.TotalRows++
		result.Stats.TotalSpans += len(row.Spans)

		if v.sortSpans {
			sort.SliceStable(row.Spans, func(a, b int) bool {
				return row.Spans[a].StartPosition < row.Spans[b].StartPosition
			})
		}

		rowErrs, rowWarns := v.checkRow(row)
		result.Warnings = append(result.Warnings, rowWarns...)

		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			result.Stats.InvalidRows++
			result.Stats.SkippedSpans += len(row.Spans)

			if !v.continueOn {
				result.IsValid = false
			}

			continue
		}

		result.Stats.ValidRows++
		result.Valid = append(result.Valid, *row)
	}

	if len(result.Valid) == 0 && result.Stats.TotalRows > 0 {
		result.IsValid = false
	}

	return result
}

// ValidateSpans checks one text against its spans. Used for single rows and
// for generated samples.
func (v *Validator) ValidateSpans(text string, spans []models.Span) error {
	prevEnd := -1
	prevStart := -1

	for i, span := range spans {
		if span.EndPosition < span.StartPosition {
			return fmt.Errorf("%w: span[%d]", ErrSpanReversed, i)
		}

		if span.EndPosition == span.StartPosition {
			return fmt.Errorf("%w: span[%d]", ErrSpanEmpty, i)
		}

		if span.StartPosition < 0 || span.EndPosition > len(text) {
			return fmt.Errorf("%w: span[%d] [%d:%d] of %d bytes",
				ErrSpanOutOfBounds, i, span.StartPosition, span.EndPosition, len(text))
		}

		if span.StartPosition < prevStart {
			return fmt.Errorf("%w: span[%d]", ErrSpansUnsorted, i)
		}

		if span.StartPosition < prevEnd {
			return fmt.Errorf("%w: span[%d] starts before span[%d] ends", ErrSpansOverlap, i, i-1)
		}

		if span.EntityValue != "" && text[span.StartPosition:span.EndPosition] != span.EntityValue {
			return fmt.Errorf("%w: span[%d] %q", ErrValueMismatch, i, span.EntityValue)
		}

		prevStart = span.StartPosition
		prevEnd = span.EndPosition
	}

	return nil
}

// checkRow validates all spans of one row, returning errors and warnings.
func (v *Validator) checkRow(row *models.CorpusRow) ([]ValidationError, []string) {
	var (
		errs  []ValidationError
		warns []string
	)

	if err := v.ValidateSpans(row.Text, row.Spans); err != nil {
		errs = append(errs, ValidationError{
			RowID:   row.ID,
			Message: err.Error(),
		})

		return errs, warns
	}

	for i, span := range row.Spans {
		if span.EntityType == "" {
			warns = append(warns, fmt.Sprintf("row %d span[%d]: missing entity type", row.ID, i))
		}
	}

	return errs, warns
}

// String returns string representation of validation result.
func (r *ValidationResult) String() string {
	status := "✅ VALID"
	if !r.IsValid {
		status = "❌ INVALID"
	}

	return fmt.Sprintf(
		"%s | Rows: %d | Valid: %d | Invalid: %d | Spans: %d | Warnings: %d",
		status,
		r.Stats.TotalRows,
		r.Stats.ValidRows,
		r.Stats.InvalidRows,
		r.Stats.TotalSpans,
		len(r.Warnings),
	)
}

// PrintErrors prints validation errors in readable format.
func (r *ValidationResult) PrintErrors() {
	if len(r.Errors) == 0 {
		return
	}

	fmt.Println("❌ Validation Errors:")

	for _, err := range r.Errors {
		fmt.Printf("  Row %d", err.RowID)

		if err.SpanIndex > 0 {
			fmt.Printf(" span[%d]", err.SpanIndex)
		}

		fmt.Printf(": %s\n", err.Message)

		if err.Value != "" {
			fmt.Printf("    Found: %q\n", err.Value)
		}
	}
}

// PrintWarnings prints validation warnings.
func (r *ValidationResult) PrintWarnings() {
	if len(r.Warnings) == 0 {
		return
	}

	fmt.Println("⚠️  Validation Warnings:")

	for _, warn := range r.Warnings {
		fmt.Printf("  %s\n", warn)
	}
}
