package repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabletalk/server/internal/assistant/model"
)

func TestContextSummaryEmpty(t *testing.T) {
	assert.Equal(t, EmptyContext, ContextSummary(nil))
}

func TestContextSummaryChatOnly(t *testing.T) {
	turns := []model.ConversationTurn{
		{Role: model.RoleUser, Text: "hi"},
		{Role: model.RoleAssistant, Text: "Hello! How can I help?"},
	}

	got := ContextSummary(turns)

	assert.NotContains(t, got, "[DATA ANALYSIS SESSION")
	assert.Contains(t, got, "Previous conversation:")
	assert.Contains(t, got, "User: hi")
	assert.Contains(t, got, "Assistant: Hello! How can I help?")
}

func TestContextSummaryWithAnalysis(t *testing.T) {
	ri := &model.ResolvedIntent{QueryIntent: model.QueryIntent{
		IsMeaningful:  true,
		CanBeAnswered: true,
		GroupColumn:   "Region",
		ValueColumn:   "Sales",
		Aggregation:   model.AggSum,
		Limit:         5,
		ChartType:     model.ChartBar,
	}}
	turns := []model.ConversationTurn{
		{Role: model.RoleUser, Text: "top 5 regions by sales"},
		{
			Role:           model.RoleAssistant,
			Text:           "Here are the results",
			ResolvedIntent: ri,
			ChartSummary:   &model.ChartSummary{Type: model.ChartBar},
		},
	}

	got := ContextSummary(turns)

	assert.True(t, strings.HasPrefix(got, "[DATA ANALYSIS SESSION - Previous messages involved data queries]"))
	assert.Contains(t, got, "[executed data analysis]")
	assert.Contains(t, got, "[created bar chart]")
	assert.Contains(t, got, "[analysis: grouped by Region, value: Sales, aggregation: sum, limit: 5, chart: bar]")
}

func TestContextSummaryPartialAnalysisDetails(t *testing.T) {
	ri := &model.ResolvedIntent{QueryIntent: model.QueryIntent{
		IsMeaningful:  true,
		CanBeAnswered: true,
		ValueColumn:   "Sales",
		Aggregation:   model.AggSum,
	}}
	turns := []model.ConversationTurn{
		{Role: model.RoleAssistant, Text: "The sum of Sales is: 5000", ResolvedIntent: ri},
	}

	got := ContextSummary(turns)

	assert.Contains(t, got, "[analysis: value: Sales, aggregation: sum]")
	assert.NotContains(t, got, "grouped by")
	assert.NotContains(t, got, "limit:")
}
