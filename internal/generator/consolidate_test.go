package generator

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"piigen/internal/models"
)

func TestConsolidate(t *testing.T) {
	sample := &models.InputSample{
		FullText: "Maria Silva moved from Lisbon to 17 Vodni Street, zip 60200.",
		Masked:   "[FIRST_NAME] [LAST_NAME] moved from [CITY] to [ADDRESS], zip [ZIP].",
		Spans: []models.Span{
			{EntityType: "FIRST_NAME", EntityValue: "Maria"},
			{EntityType: "LAST_NAME", EntityValue: "Silva"},
			{EntityType: "CITY", EntityValue: "Lisbon"},
			{EntityType: "ADDRESS", EntityValue: "17 Vodni Street"},
			{EntityType: "ZIP", EntityValue: "60200"},
		},
	}

	Consolidate(sample)

	wantTypes := []string{"PERSON", "PERSON", "LOCATION", "LOCATION", "ZIP"}
	gotTypes := make([]string, len(sample.Spans))

	for i, span := range sample.Spans {
		gotTypes[i] = span.EntityType
	}

	if diff := cmp.Diff(wantTypes, gotTypes); diff != "" {
		t.Errorf("Consolidate() span types mismatch (-want +got):\n%s", diff)
	}

	wantMasked := "[PERSON] [PERSON] moved from [LOCATION] to [LOCATION], zip [ZIP]."
	if sample.Masked != wantMasked {
		t.Errorf("Consolidate() masked = %q, want %q", sample.Masked, wantMasked)
	}
}

func TestConsolidateMaskedKeepsIndexes(t *testing.T) {
	tests := []struct {
		name   string
		masked string
		want   string
	}{
		{
			name:   "numbered location variant",
			masked: "[CITY] and [CITY2] and [COUNTRY]",
			want:   "[LOCATION] and [LOCATION2] and [LOCATION]",
		},
		{
			name:   "mixed name variants",
			masked: "[PERSON] wrote to [FIRST_NAME2]",
			want:   "[PERSON] wrote to [PERSON2]",
		},
		{
			name:   "street number is not a location",
			masked: "house [STREET_NO] on [STREET]",
			want:   "house [STREET_NO] on [LOCATION]",
		},
		{
			name:   "unknown marker untouched",
			masked: "ping [IP_ADDRESS] now",
			want:   "ping [IP_ADDRESS] now",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := consolidateMasked(tt.masked); got != tt.want {
				t.Errorf("consolidateMasked(%q) = %q, want %q", tt.masked, got, tt.want)
			}
		})
	}
}
