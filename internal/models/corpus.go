package models

// CorpusRow is one annotated row of a source corpus: the raw text plus the
// labeled spans found in it. Rows without spans survive loading but are
// dropped by the labeled-row filter before extraction.
type CorpusRow struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Spans  []Span `json:"spans"`
	Source string `json:"source,omitempty"`
}

// Labeled reports whether the row carries at least one span.
func (r *CorpusRow) Labeled() bool {
	return len(r.Spans) > 0
}
