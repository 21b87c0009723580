package model

import (
	"fmt"
	"strings"
)

// SchemaDescriptor is the lightweight view of a dataset the oracles and the
// resolver work against: ordered unique column names, one sample value per
// column and the row count. Immutable once extracted.
type SchemaDescriptor struct {
	Columns      []string          `json:"columns"`
	SampleValues map[string]string `json:"sample_values"`
	RowCount     int               `json:"row_count"`
}

// HasColumn reports whether name is an exact schema column.
func (sd SchemaDescriptor) HasColumn(name string) bool {
	for _, c := range sd.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Sample returns the recorded sample value for a column, or "N/A".
func (sd SchemaDescriptor) Sample(column string) string {
	if v, ok := sd.SampleValues[column]; ok && v != "" {
		return v
	}
	return "N/A"
}

// Prompt renders the schema block used in oracle prompts.
func (sd SchemaDescriptor) Prompt() string {
	if len(sd.Columns) == 0 {
		return "No schema available"
	}
	var b strings.Builder
	b.WriteString("Available Columns:\n")
	for _, col := range sd.Columns {
		fmt.Fprintf(&b, "- %s (example: %s)\n", col, sd.Sample(col))
	}
	fmt.Fprintf(&b, "\nTotal rows: %d", sd.RowCount)
	return b.String()
}
