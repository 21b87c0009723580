// Package schema derives the lightweight schema descriptor the oracles and
// the resolver work against. Extraction is a pure function of the table.
package schema

import (
	"strings"

	"github.com/tabletalk/server/internal/assistant/dataset"
	"github.com/tabletalk/server/internal/assistant/model"
)

// maxSampleRunes caps how much of a cell is kept as the per-column sample.
const maxSampleRunes = 50

// Extract builds a SchemaDescriptor from a table: ordered column names, the
// first non-empty value per column (or "N/A") and the row count.
func Extract(t *dataset.Table) model.SchemaDescriptor {
	if t == nil || len(t.Columns) == 0 {
		return model.SchemaDescriptor{SampleValues: map[string]string{}}
	}

	samples := make(map[string]string, len(t.Columns))
	for i, col := range t.Columns {
		samples[col] = sampleFor(t, i)
	}

	columns := make([]string, len(t.Columns))
	copy(columns, t.Columns)

	return model.SchemaDescriptor{
		Columns:      columns,
		SampleValues: samples,
		RowCount:     t.RowCount(),
	}
}

func sampleFor(t *dataset.Table, col int) string {
	for _, row := range t.Rows {
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		return truncate(v, maxSampleRunes)
	}
	return "N/A"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
