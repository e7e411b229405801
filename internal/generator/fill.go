package generator

import (
	"strings"

	"piigen/internal/models"
	"piigen/internal/templates"
	"piigen/pkg/textutil"
)

var bracketMarkers = strings.NewReplacer("{", "[", "}", "]")

// fill renders one template into a labeled sample. Every slot is replaced by
// its value from the values map (keyed by slot key, so repeated entities use
// their numbered keys), and a span is recorded for each replacement with the
// slot's base entity type.
//
// Lowercasing is applied piece by piece while the text is assembled, so span
// offsets stay valid even when case folding changes the byte length of a
// chunk. The indefinite article directly before a slot is patched from "a"
// to "an" when the filled value starts with a vowel.
func fill(tmpl *templates.Template, values map[string]string, toLower bool) *models.InputSample {
	text := tmpl.Text
	slots := tmpl.Slots()

	buf := make([]byte, 0, len(text)+64)
	spans := make([]models.Span, 0, len(slots))

	prev := 0

	for _, slot := range slots {
		buf = appendChunk(buf, text[prev:slot.Start], toLower)
		prev = slot.End

		value := strings.TrimSpace(values[slot.Key])
		if toLower {
			value = strings.ToLower(value)
		}

		if value != "" && textutil.StartsWithVowel(value) && endsWithArticle(buf) {
			buf = append(buf[:len(buf)-1], 'n', ' ')
		}

		start := len(buf)
		buf = append(buf, value...)

		spans = append(spans, models.Span{
			EntityType:    textutil.TrimIndex(slot.Key),
			EntityValue:   value,
			StartPosition: start,
			EndPosition:   start + len(value),
		})
	}

	buf = appendChunk(buf, text[prev:], toLower)

	return &models.InputSample{
		FullText:   string(buf),
		Masked:     bracketMarkers.Replace(text),
		Spans:      spans,
		TemplateID: tmpl.ID,
	}
}

func appendChunk(buf []byte, chunk string, toLower bool) []byte {
	if toLower {
		chunk = strings.ToLower(chunk)
	}

	return append(buf, chunk...)
}

// endsWithArticle reports whether the assembled text ends with a standalone
// indefinite article: either the text is exactly "a " so far, or it ends
// with " a ".
func endsWithArticle(buf []byte) bool {
	if len(buf) == 2 && strings.EqualFold(string(buf), "a ") {
		return true
	}

	return len(buf) >= 3 && strings.EqualFold(string(buf[len(buf)-3:]), " a ")
}
