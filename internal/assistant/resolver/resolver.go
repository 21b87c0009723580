// Package resolver merges the current turn's possibly-partial intent with the
// previous turn's resolved intent into one fully-specified analysis intent.
// This is the single place where precedence between explicit signals,
// inherited parameters and system defaults is decided.
package resolver

import (
	"fmt"

	"github.com/tabletalk/server/internal/assistant/model"
)

// System defaults applied when neither the current turn nor the previous one
// determines a parameter.
const (
	DefaultAggregation = model.AggSum
	DefaultSortOrder   = model.SortDesc
	DefaultLimit       = 10
	DefaultChartType   = model.ChartBar
)

// Resolve produces the fully merged intent for this turn. It is pure and
// total: every input combination terminates in a valid ResolvedIntent or an
// explicit CanBeAnswered=false intent carrying a human-readable explanation.
//
// Precedence, highest first: explicit current-turn fields, kind-specific
// follow-up rules, generic inheritance from previous, system defaults.
func Resolve(current model.QueryIntent, previous *model.ResolvedIntent, sd model.SchemaDescriptor) model.ResolvedIntent {
	// Non-meaningful input: never fabricate analysis fields.
	if !current.IsMeaningful {
		return model.ResolvedIntent{QueryIntent: model.QueryIntent{
			IsMeaningful:      false,
			CanBeAnswered:     false,
			ErrorMessage:      current.ErrorMessage,
			SuggestedResponse: current.SuggestedResponse,
		}}
	}

	// An unanswerable new question never silently inherits an old answerable
	// shape; pass it through carrying its explanation.
	if !current.CanBeAnswered {
		return model.ResolvedIntent{QueryIntent: current}
	}

	out := current

	if !current.IsFollowUp || previous == nil {
		// Fresh query (or a follow-up with nothing to inherit from, which
		// degrades to a fresh query rather than failing).
		out.IsFollowUp = false
		out.FollowUpKind = ""
		out.InheritFromPrevious = false
		applyDefaults(&out)
	} else {
		mergeFollowUp(&out, previous)
	}

	validateColumns(&out, sd)

	// A requested visualization always resolves to a concrete chart type.
	if out.RequiresVisualization && out.ChartType == "" {
		out.ChartType = DefaultChartType
	}

	return model.ResolvedIntent{QueryIntent: out}
}

// applyDefaults fills the scalar tie-breaks for a fresh query. The row limit
// only applies to grouped rankings; single-value answers need none.
func applyDefaults(out *model.QueryIntent) {
	if out.Aggregation == "" {
		out.Aggregation = DefaultAggregation
	}
	if out.SortOrder == "" {
		out.SortOrder = DefaultSortOrder
	}
	if out.Limit == 0 && out.HasGrouping() {
		out.Limit = DefaultLimit
	}
}

// mergeFollowUp applies field-level inheritance: only fields absent in the
// current intent are taken from the previous turn, so anything the oracle set
// explicitly this turn always wins.
func mergeFollowUp(out *model.QueryIntent, previous *model.ResolvedIntent) {
	if out.GroupColumn == "" {
		out.GroupColumn = previous.GroupColumn
	}
	if out.ValueColumn == "" {
		out.ValueColumn = previous.ValueColumn
	}
	if out.Aggregation == "" {
		out.Aggregation = previous.Aggregation
	}
	if out.Aggregation == "" {
		out.Aggregation = DefaultAggregation
	}
	if out.SortOrder == "" {
		out.SortOrder = previous.SortOrder
	}
	if out.SortOrder == "" {
		out.SortOrder = DefaultSortOrder
	}

	// Each follow-up kind changes exactly one semantic axis and freezes the
	// others.
	switch out.FollowUpKind {
	case model.FollowUpLimit:
		// The oracle/fallback contract guarantees a limit for this kind;
		// inherit defensively if it was violated.
		if out.Limit == 0 {
			out.Limit = previous.Limit
		}
		if out.ChartType == "" {
			out.ChartType = previous.ChartType
		}
		out.RequiresVisualization = out.RequiresVisualization || previous.RequiresVisualization

	case model.FollowUpChartType:
		// The user asked to change the chart, so a chart is wanted.
		out.RequiresVisualization = true
		if out.Limit == 0 {
			out.Limit = previous.Limit
		}

	case model.FollowUpColumn:
		// New columns came from the current turn via the generic merge
		// (which only fills absent fields); limit stays frozen.
		if out.Limit == 0 {
			out.Limit = previous.Limit
		}

	case model.FollowUpFilter:
		if out.Limit == 0 {
			out.Limit = previous.Limit
		}
		if out.ChartType == "" {
			out.ChartType = previous.ChartType
		}
		out.RequiresVisualization = out.RequiresVisualization || previous.RequiresVisualization
	}
}

// validateColumns replaces natural-language column references with exact
// schema identifiers, and reconciles filter values against sampled data for
// filter follow-ups. An unresolvable reference nulls the field and marks the
// intent unanswerable with an explanation.
func validateColumns(out *model.QueryIntent, sd model.SchemaDescriptor) {
	if out.GroupColumn != "" && !sd.HasColumn(out.GroupColumn) {
		if match, ok := MatchColumn(out.GroupColumn, sd.Columns); ok {
			out.GroupColumn = match
		} else {
			out.ErrorMessage = missingColumnMessage(out.GroupColumn, sd)
			out.GroupColumn = ""
			out.CanBeAnswered = false
		}
	}
	if out.ValueColumn != "" && !sd.HasColumn(out.ValueColumn) {
		if match, ok := MatchColumn(out.ValueColumn, sd.Columns); ok {
			out.ValueColumn = match
		} else {
			out.ErrorMessage = missingColumnMessage(out.ValueColumn, sd)
			out.ValueColumn = ""
			out.CanBeAnswered = false
		}
	}

	if out.FollowUpKind == model.FollowUpFilter && len(out.FilterValues) > 0 {
		out.GroupColumn = reconcileFilterColumn(out.GroupColumn, out.FilterValues, sd)
	}
}

func missingColumnMessage(column string, sd model.SchemaDescriptor) string {
	return fmt.Sprintf(
		"I couldn't find a column matching %q in your data. Available columns: %s.",
		column, joinColumns(sd.Columns),
	)
}

func joinColumns(columns []string) string {
	if len(columns) == 0 {
		return "(none)"
	}
	s := ""
	for i, c := range columns {
		if i > 0 {
			s += ", "
		}
		s += c
	}
	return s
}
