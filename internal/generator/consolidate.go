package generator

import (
	"regexp"

	"piigen/internal/models"
)

// Entity families folded into a single type after filling. STREET_NO and ZIP
// stay as they are: a bare street number or zip code is not a location on
// its own.
var (
	nameTypes = map[string]bool{
		"FIRST_NAME": true,
		"LAST_NAME":  true,
		"PERSON":     true,
	}

	locationTypes = map[string]bool{
		"LOCATION": true,
		"CITY":     true,
		"STATE":    true,
		"COUNTRY":  true,
		"ADDRESS":  true,
		"STREET":   true,
	}
)

var maskedMarkerPattern = regexp.MustCompile(`\[([A-Z_]+)([0-9]*)\]`)

// Consolidate folds the name and location entity variants of a sample into
// PERSON and LOCATION, on both the spans and the masked template, so the
// emitted labels match the coarse types a recognizer is trained on.
func Consolidate(sample *models.InputSample) {
	for i := range sample.Spans {
		switch {
		case nameTypes[sample.Spans[i].EntityType]:
			sample.Spans[i].EntityType = "PERSON"
		case locationTypes[sample.Spans[i].EntityType]:
			sample.Spans[i].EntityType = "LOCATION"
		}
	}

	sample.Masked = consolidateMasked(sample.Masked)
}

// consolidateMasked rewrites the entity markers of a masked template,
// keeping any numeric suffix: [CITY2] becomes [LOCATION2].
func consolidateMasked(masked string) string {
	return maskedMarkerPattern.ReplaceAllStringFunc(masked, func(marker string) string {
		sub := maskedMarkerPattern.FindStringSubmatch(marker)
		base, index := sub[1], sub[2]

		switch {
		case nameTypes[base]:
			base = "PERSON"
		case locationTypes[base]:
			base = "LOCATION"
		}

		return "[" + base + index + "]"
	})
}
