package dataset

import (
	"testing"

	"piigen/internal/models"
)

func TestCollect(t *testing.T) {
	stats := Collect(sampleFixtures())

	if stats.Samples != 2 {
		t.Errorf("Samples = %d, want 2", stats.Samples)
	}

	if stats.SpansTotal != 3 {
		t.Errorf("SpansTotal = %d, want 3", stats.SpansTotal)
	}

	if stats.Lowercased != 1 {
		t.Errorf("Lowercased = %d, want 1", stats.Lowercased)
	}

	if got := stats.EntityCounts["PERSON"]; got != 2 {
		t.Errorf("EntityCounts[PERSON] = %d, want 2", got)
	}

	if got := stats.EntityCounts["LOCATION"]; got != 1 {
		t.Errorf("EntityCounts[LOCATION] = %d, want 1", got)
	}

	if len(stats.TemplateUses) != 2 {
		t.Errorf("TemplateUses has %d templates, want 2", len(stats.TemplateUses))
	}
}

func TestStatsString(t *testing.T) {
	stats := Collect(sampleFixtures())

	want := "Samples: 2 | Spans: 3 | Entity types: 2 | Lowercased: 1 | Templates used: 2"
	if got := stats.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestRenderTable(t *testing.T) {
	stats := &Stats{
		SpansTotal: 3,
		EntityCounts: map[string]int{
			"PERSON":   2,
			"LOCATION": 1,
		},
	}

	want := "" +
		"| ENTITY   | SPANS | SHARE |\n" +
		"| -------- | ----- | ----- |\n" +
		"| PERSON   | 2     | 66.7% |\n" +
		"| LOCATION | 1     | 33.3% |\n"

	if got := stats.RenderTable(); got != want {
		t.Errorf("RenderTable() =\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderTableEmpty(t *testing.T) {
	stats := Collect(nil)

	got := stats.RenderTable()

	if got == "" {
		t.Fatal("RenderTable() on an empty dataset should still render the header")
	}
}

func TestCollectCountsTokens(t *testing.T) {
	samples := []models.InputSample{
		{FullText: "hi there", Tokens: []string{"hi", "there"}, Tags: []string{"O", "O"}},
	}

	stats := Collect(samples)

	if stats.TokensTotal != 2 {
		t.Errorf("TokensTotal = %d, want 2", stats.TokensTotal)
	}
}
