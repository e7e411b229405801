package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"piigen/internal/models"
)

// Stats summarizes a dataset.
type Stats struct {
	Samples      int
	Lowercased   int
	SpansTotal   int
	TokensTotal  int
	EntityCounts map[string]int
	TemplateUses map[int]int
}

// Collect computes dataset statistics.
func Collect(samples []models.InputSample) *Stats {
	stats := &Stats{
		EntityCounts: make(map[string]int),
		TemplateUses: make(map[int]int),
	}

	for i := range samples {
		sample := &samples[i]

		stats.Samples++
		stats.SpansTotal += len(sample.Spans)
		stats.TokensTotal += len(sample.Tokens)
		stats.TemplateUses[sample.TemplateID]++

		if sample.Metadata != nil && sample.Metadata.Lowercase {
			stats.Lowercased++
		}

		for _, span := range sample.Spans {
			stats.EntityCounts[span.EntityType]++
		}
	}

	return stats
}

// String returns a one-line summary.
func (s *Stats) String() string {
	return fmt.Sprintf("Samples: %d | Spans: %d | Entity types: %d | Lowercased: %d | Templates used: %d",
		s.Samples, s.SpansTotal, len(s.EntityCounts), s.Lowercased, len(s.TemplateUses))
}

// RenderTable renders the per-entity span counts as an aligned markdown
// table, most frequent entity first.
func (s *Stats) RenderTable() string {
	type entityRow struct {
		entity string
		count  int
	}

	rows := make([]entityRow, 0, len(s.EntityCounts))
	for entity, count := range s.EntityCounts {
		rows = append(rows, entityRow{entity: entity, count: count})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}

		return rows[i].entity < rows[j].entity
	})

	table := [][]string{{"ENTITY", "SPANS", "SHARE"}}

	for _, row := range rows {
		share := 0.0
		if s.SpansTotal > 0 {
			share = float64(row.count) * 100 / float64(s.SpansTotal)
		}

		table = append(table, []string{
			row.entity,
			fmt.Sprintf("%d", row.count),
			fmt.Sprintf("%.1f%%", share),
		})
	}

	return renderRows(table)
}

// renderRows lays out rows as a markdown table, padding every cell to the
// widest display width of its column.
func renderRows(table [][]string) string {
	if len(table) == 0 {
		return ""
	}

	colCount := len(table[0])
	colWidths := make([]int, colCount)

	for _, row := range table {
		for i := 0; i < len(row) && i < colCount; i++ {
			if width := runewidth.StringWidth(row[i]); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	// Keep room for the separator dashes.
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	var sb strings.Builder

	for rowIdx, row := range table {
		sb.WriteString("|")

		for j := 0; j < colCount; j++ {
			sb.WriteString(" ")

			content := ""
			if j < len(row) {
				content = row[j]
			}

			sb.WriteString(content)

			if padding := colWidths[j] - runewidth.StringWidth(content); padding > 0 {
				sb.WriteString(strings.Repeat(" ", padding))
			}

			sb.WriteString(" |")
		}

		sb.WriteString("\n")

		if rowIdx == 0 {
			sb.WriteString("|")

			for j := 0; j < colCount; j++ {
				sb.WriteString(" " + strings.Repeat("-", colWidths[j]) + " |")
			}

			sb.WriteString("\n")
		}
	}

	return sb.String()
}
