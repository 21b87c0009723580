package repo

import (
	"fmt"
	"strings"

	"github.com/tabletalk/server/internal/assistant/model"
)

// EmptyContext is what the oracles see for a session with no stored turns.
const EmptyContext = "No previous conversation context."

// ContextSummary renders recent turns into the compact text block both
// oracles receive. The bracketed markers double as classifier hints: a
// session that already ran an analysis biases short follow-ups toward
// DATA_QUESTION.
func ContextSummary(turns []model.ConversationTurn) string {
	if len(turns) == 0 {
		return EmptyContext
	}

	var lines []string
	if hasAnalysis(turns) {
		lines = append(lines, "[DATA ANALYSIS SESSION - Previous messages involved data queries]")
	}
	lines = append(lines, "Previous conversation:")

	for _, t := range turns {
		role := "User"
		if t.Role == model.RoleAssistant {
			role = "Assistant"
		}
		content := t.Text
		if t.ResolvedIntent != nil {
			content += " [executed data analysis]"
		}
		if t.ChartSummary != nil {
			content += fmt.Sprintf(" [created %s chart]", t.ChartSummary.Type)
		}
		if t.ResolvedIntent != nil {
			if details := analysisDetails(t.ResolvedIntent); details != "" {
				content += fmt.Sprintf(" [analysis: %s]", details)
			}
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, content))
	}

	return strings.Join(lines, "\n")
}

// analysisDetails inlines the resolved intent so the intent oracle can read
// what the previous analysis did when judging a follow-up.
func analysisDetails(ri *model.ResolvedIntent) string {
	var parts []string
	if ri.GroupColumn != "" {
		parts = append(parts, fmt.Sprintf("grouped by %s", ri.GroupColumn))
	}
	if ri.ValueColumn != "" {
		parts = append(parts, fmt.Sprintf("value: %s", ri.ValueColumn))
	}
	if ri.Aggregation != "" {
		parts = append(parts, fmt.Sprintf("aggregation: %s", ri.Aggregation))
	}
	if ri.Limit > 0 {
		parts = append(parts, fmt.Sprintf("limit: %d", ri.Limit))
	}
	if ri.ChartType != "" {
		parts = append(parts, fmt.Sprintf("chart: %s", ri.ChartType))
	}
	return strings.Join(parts, ", ")
}

func hasAnalysis(turns []model.ConversationTurn) bool {
	for _, t := range turns {
		if t.ResolvedIntent != nil || t.ChartSummary != nil {
			return true
		}
	}
	return false
}
