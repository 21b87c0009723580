package model

// QueryCategory is the coarse routing decision for an incoming utterance.
type QueryCategory string

const (
	CategoryDataQuestion QueryCategory = "DATA_QUESTION"
	CategoryGreeting     QueryCategory = "GREETING"
	CategoryChitchat     QueryCategory = "CHITCHAT"
	CategoryUnclear      QueryCategory = "UNCLEAR"
)

// ChartType enumerates the chart kinds the frontend can render.
type ChartType string

const (
	ChartBar     ChartType = "bar"
	ChartLine    ChartType = "line"
	ChartPie     ChartType = "pie"
	ChartScatter ChartType = "scatter"
	ChartArea    ChartType = "area"
)

// ParseChartType normalises a raw value into a known chart type.
// The second return is false for anything outside the enum.
func ParseChartType(s string) (ChartType, bool) {
	switch ChartType(s) {
	case ChartBar, ChartLine, ChartPie, ChartScatter, ChartArea:
		return ChartType(s), true
	}
	return "", false
}

// Aggregation enumerates the supported aggregate functions.
type Aggregation string

const (
	AggSum   Aggregation = "sum"
	AggMean  Aggregation = "mean"
	AggCount Aggregation = "count"
	AggMin   Aggregation = "min"
	AggMax   Aggregation = "max"
)

// ParseAggregation normalises a raw value into a known aggregation.
func ParseAggregation(s string) (Aggregation, bool) {
	switch Aggregation(s) {
	case AggSum, AggMean, AggCount, AggMin, AggMax:
		return Aggregation(s), true
	}
	return "", false
}

// SortOrder enumerates result orderings.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder normalises a raw value into a known sort order.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(s) {
	case SortAsc, SortDesc:
		return SortOrder(s), true
	}
	return "", false
}

// FollowUpKind classifies which semantic axis a follow-up changes.
type FollowUpKind string

const (
	FollowUpChartType FollowUpKind = "chart_type_change"
	FollowUpLimit     FollowUpKind = "limit_change"
	FollowUpColumn    FollowUpKind = "column_change"
	FollowUpFilter    FollowUpKind = "filter_change"
)

// ParseFollowUpKind normalises a raw value into a known follow-up kind.
func ParseFollowUpKind(s string) (FollowUpKind, bool) {
	switch FollowUpKind(s) {
	case FollowUpChartType, FollowUpLimit, FollowUpColumn, FollowUpFilter:
		return FollowUpKind(s), true
	}
	return "", false
}

// QueryIntent is the structured understanding of one utterance as produced by
// the intent oracle. Any analysis field may be absent: the zero value ("" or 0)
// means the oracle did not determine it this turn.
type QueryIntent struct {
	IsMeaningful          bool         `json:"is_meaningful_query"`
	CanBeAnswered         bool         `json:"can_be_answered"`
	RequiresVisualization bool         `json:"requires_visualization"`
	ChartType             ChartType    `json:"chart_type,omitempty"`
	Limit                 int          `json:"limit_number,omitempty"`
	GroupColumn           string       `json:"group_column,omitempty"`
	ValueColumn           string       `json:"value_column,omitempty"`
	Aggregation           Aggregation  `json:"aggregation,omitempty"`
	SortOrder             SortOrder    `json:"sort_order,omitempty"`
	IsFollowUp            bool         `json:"is_follow_up"`
	FollowUpKind          FollowUpKind `json:"follow_up_type,omitempty"`
	InheritFromPrevious   bool         `json:"inherit_from_previous"`
	FilterValues          []string     `json:"filter_values,omitempty"`
	ErrorMessage          string       `json:"error_message,omitempty"`
	SuggestedResponse     string       `json:"suggested_response,omitempty"`
}

// ResolvedIntent is a QueryIntent after follow-up merging, default filling and
// column validation. Every field the execution engine needs is populated, or
// CanBeAnswered is false with a user-facing ErrorMessage. A ResolvedIntent is
// built once per turn and never mutated afterwards; the next turn's resolver
// reads it as the inheritance source.
type ResolvedIntent struct {
	QueryIntent
}

// AsQuery returns the underlying intent, e.g. to re-feed the resolver.
func (r ResolvedIntent) AsQuery() QueryIntent {
	return r.QueryIntent
}

// HasGrouping reports whether the intent describes a grouped aggregation
// (as opposed to a single-value answer).
func (q QueryIntent) HasGrouping() bool {
	return q.GroupColumn != "" && q.ValueColumn != ""
}

// ProducesGroupedRows reports whether execution yields one row per group:
// either a grouped aggregation over a value column, or a per-group row count,
// which needs no value column.
func (q QueryIntent) ProducesGroupedRows() bool {
	return q.GroupColumn != "" && (q.ValueColumn != "" || q.Aggregation == AggCount)
}
