package generator

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"piigen/pkg/textutil"
)

// ErrMissingWordColumn indicates a vocabulary file without a WORD column.
var ErrMissingWordColumn = errors.New("vocabulary file has no WORD column")

// Vocabulary is a case-folded word list. It is used to flag how many of the
// generated tokens fall outside a language's everyday lexicon, which is a
// quick proxy for how synthetic a dataset reads.
type Vocabulary struct {
	words map[string]bool
}

// LoadVocabulary reads a vocabulary out of a CSV file with a WORD column.
func LoadVocabulary(path string) (*Vocabulary, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}

	if len(rows) == 0 {
		return nil, ErrMissingWordColumn
	}

	wordColumn := -1

	for i, header := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(header), "word") {
			wordColumn = i
			break
		}
	}

	if wordColumn < 0 {
		return nil, ErrMissingWordColumn
	}

	vocab := &Vocabulary{words: make(map[string]bool, len(rows))}

	for _, row := range rows[1:] {
		if wordColumn >= len(row) {
			continue
		}

		if word := textutil.FoldKey(row[wordColumn]); word != "" {
			vocab.words[word] = true
		}
	}

	return vocab, nil
}

// Contains reports whether a token is part of the vocabulary, matching
// case-insensitively.
func (v *Vocabulary) Contains(token string) bool {
	return v.words[textutil.FoldKey(token)]
}

// Len returns the number of distinct vocabulary words.
func (v *Vocabulary) Len() int {
	return len(v.words)
}
