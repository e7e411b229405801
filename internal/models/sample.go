// Package models defines the data types shared across the pipeline stages.
package models

// Span marks one labeled entity inside a text. Positions are byte offsets
// into the UTF-8 encoded text, end exclusive.
type Span struct {
	EntityType    string `json:"entity_type"`
	EntityValue   string `json:"entity_value"`
	StartPosition int    `json:"start_position"`
	EndPosition   int    `json:"end_position"`
}

// Overlaps reports whether the span intersects the byte range [start, end).
func (s Span) Overlaps(start, end int) bool {
	return s.StartPosition < end && start < s.EndPosition
}

// InputSample is one labeled training example: the rendered text, the spans
// that were filled into it, and optionally the tokenized view with one tag
// per token.
type InputSample struct {
	FullText   string          `json:"full_text"`
	Masked     string          `json:"masked"`
	Spans      []Span          `json:"spans"`
	Tokens     []string        `json:"tokens,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	TemplateID int             `json:"template_id"`
	Metadata   *SampleMetadata `json:"metadata,omitempty"`
}

// SampleMetadata carries the provenance attributes of a generated sample.
// Key casing follows the established dataset export format.
type SampleMetadata struct {
	Gender    string `json:"Gender,omitempty"`
	NameSet   string `json:"NameSet,omitempty"`
	Country   string `json:"Country,omitempty"`
	Lowercase bool   `json:"Lowercase"`
}

// EntityTypes returns the distinct entity types present in the sample's
// spans, in first-seen order.
func (s *InputSample) EntityTypes() []string {
	seen := make(map[string]bool)
	types := make([]string, 0, len(s.Spans))

	for _, span := range s.Spans {
		if !seen[span.EntityType] {
			seen[span.EntityType] = true
			types = append(types, span.EntityType)
		}
	}

	return types
}
