// Package planner turns a resolved intent into the human-auditable execution
// plan. Pure template expansion; the language oracle is never consulted here.
package planner

import (
	"fmt"
	"strings"

	"github.com/tabletalk/server/internal/assistant/model"
)

// Synthesize renders the step list for a resolved intent. The plan doubles as
// the execution engine's instruction payload and as an explanation shown to
// the user. Steps follow the fixed order group, aggregate, sort/limit,
// omitting steps whose inputs are absent.
func Synthesize(resolved model.ResolvedIntent, utterance string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**OBJECTIVE:** Answer: %s\n\n", strings.TrimSpace(utterance))

	if !resolved.CanBeAnswered {
		b.WriteString("**DATA COLUMNS NEEDED:** None\n\n")
		b.WriteString("**STEPS:**\n1. Explain why the question cannot be answered with the available data\n\n")
		b.WriteString("**VISUALIZATION:** NO\n\n")
		b.WriteString("**OUTPUT FORMAT:** Text explanation")
		return b.String()
	}

	b.WriteString("**DATA COLUMNS NEEDED:** ")
	b.WriteString(columnsNeeded(resolved))
	b.WriteString("\n\n")

	b.WriteString("**STEPS:**\n")
	step := 1
	if len(resolved.FilterValues) > 0 && resolved.GroupColumn != "" {
		fmt.Fprintf(&b, "%d. Filter rows where %s matches: %s\n",
			step, resolved.GroupColumn, strings.Join(resolved.FilterValues, ", "))
		step++
	}
	if resolved.GroupColumn != "" {
		fmt.Fprintf(&b, "%d. Group rows by %s\n", step, resolved.GroupColumn)
		step++
	}
	if resolved.ValueColumn != "" && resolved.Aggregation != "" {
		fmt.Fprintf(&b, "%d. Aggregate %s using %s\n", step, resolved.ValueColumn, resolved.Aggregation)
		step++
	} else if resolved.Aggregation == model.AggCount && resolved.GroupColumn != "" {
		fmt.Fprintf(&b, "%d. Count rows per group\n", step)
		step++
	}
	if resolved.SortOrder != "" && resolved.ProducesGroupedRows() {
		fmt.Fprintf(&b, "%d. Sort results in %s order\n", step, sortWord(resolved.SortOrder))
		step++
	}
	if resolved.Limit > 0 {
		fmt.Fprintf(&b, "%d. Keep the top %d rows\n", step, resolved.Limit)
		step++
	}
	if step == 1 {
		fmt.Fprintf(&b, "%d. Summarize the dataset\n", step)
	}
	b.WriteString("\n")

	if resolved.RequiresVisualization && resolved.ChartType != "" {
		fmt.Fprintf(&b, "**VISUALIZATION:** YES - %s chart", resolved.ChartType)
		if resolved.ProducesGroupedRows() {
			y := resolved.ValueColumn
			if y == "" {
				y = "count"
			}
			fmt.Fprintf(&b, " with X: %s, Y: %s", resolved.GroupColumn, y)
		}
		b.WriteString("\n\n")
		b.WriteString("**OUTPUT FORMAT:** Answer text plus chart payload")
	} else {
		b.WriteString("**VISUALIZATION:** NO\n\n")
		b.WriteString("**OUTPUT FORMAT:** Text answer")
	}

	return b.String()
}

func columnsNeeded(resolved model.ResolvedIntent) string {
	switch {
	case resolved.HasGrouping():
		return resolved.GroupColumn + ", " + resolved.ValueColumn
	case resolved.GroupColumn != "":
		return resolved.GroupColumn
	case resolved.ValueColumn != "":
		return resolved.ValueColumn
	default:
		return "All available columns"
	}
}

func sortWord(s model.SortOrder) string {
	if s == model.SortAsc {
		return "ascending"
	}
	return "descending"
}
