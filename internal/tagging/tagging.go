// Package tagging tokenizes sample text and converts spans into per-token
// labels under the BILOU, BIO or IO scheme.
package tagging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/clipperhouse/uax29/v2/words"

	"piigen/internal/models"
)

// Token is one word-level segment with byte offsets into the source text.
type Token struct {
	Text  string
	Start int
	End   int
}

// Tokenize segments text into word-level tokens using UAX #29 word
// boundaries. Segments partition the text, so offsets accumulate exactly.
// Whitespace segments are dropped; punctuation stays.
func Tokenize(text string) []Token {
	var tokens []Token

	pos := 0

	segs := words.FromString(text)
	for segs.Next() {
		val := segs.Value()
		start := pos
		pos += len(val)

		if strings.TrimSpace(val) == "" {
			continue
		}

		tokens = append(tokens, Token{Text: val, Start: start, End: pos})
	}

	return tokens
}

// Scheme is a token labeling scheme.
type Scheme string

// Supported labeling schemes.
const (
	SchemeBILOU Scheme = "BILOU"
	SchemeBIO   Scheme = "BIO"
	SchemeIO    Scheme = "IO"
)

// ErrUnknownScheme is returned for unrecognized scheme names.
var ErrUnknownScheme = errors.New("unknown labeling scheme")

// ParseScheme parses a scheme name case-insensitively.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BILOU":
		return SchemeBILOU, nil
	case "BIO":
		return SchemeBIO, nil
	case "IO":
		return SchemeIO, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownScheme, s)
}

// Tag labels every token with the scheme-prefixed entity type of the span
// covering it, or "O" outside all spans. A token counts as covered when its
// byte range intersects the span.
func Tag(tokens []Token, spans []models.Span, scheme Scheme) []string {
	tags := make([]string, len(tokens))
	for i := range tags {
		tags[i] = "O"
	}

	for _, span := range spans {
		if span.EntityType == "" {
			continue
		}

		var covered []int

		for i, tok := range tokens {
			if span.Overlaps(tok.Start, tok.End) {
				covered = append(covered, i)
			}
		}

		for pos, i := range covered {
			tags[i] = schemeTag(scheme, span.EntityType, pos, len(covered))
		}
	}

	return tags
}

func schemeTag(scheme Scheme, entity string, position, total int) string {
	switch scheme {
	case SchemeIO:
		return entity
	case SchemeBIO:
		if position == 0 {
			return "B-" + entity
		}

		return "I-" + entity
	case SchemeBILOU:
		switch {
		case total == 1:
			return "U-" + entity
		case position == 0:
			return "B-" + entity
		case position == total-1:
			return "L-" + entity
		default:
			return "I-" + entity
		}
	}

	return entity
}

// Apply tokenizes the sample text and fills its token and tag views in place.
func Apply(sample *models.InputSample, scheme Scheme) {
	tokens := Tokenize(sample.FullText)

	sample.Tokens = make([]string, len(tokens))
	for i, tok := range tokens {
		sample.Tokens[i] = tok.Text
	}

	sample.Tags = Tag(tokens, sample.Spans, scheme)
}
