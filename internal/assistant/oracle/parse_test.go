package oracle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletalk/server/internal/assistant/model"
)

func TestParseIntentJSONFullObject(t *testing.T) {
	content := `{
		"is_meaningful_query": true,
		"can_be_answered": true,
		"requires_visualization": true,
		"chart_type": "pie",
		"limit_number": 5,
		"group_column": "Region",
		"value_column": "Sales",
		"aggregation": "sum",
		"sort_order": "desc",
		"is_follow_up": true,
		"follow_up_type": "chart_type_change",
		"inherit_from_previous": true,
		"filter_values": ["West", "East"]
	}`

	intent, err := ParseIntentJSON(content)
	require.NoError(t, err)

	assert.True(t, intent.IsMeaningful)
	assert.True(t, intent.CanBeAnswered)
	assert.True(t, intent.RequiresVisualization)
	assert.Equal(t, model.ChartPie, intent.ChartType)
	assert.Equal(t, 5, intent.Limit)
	assert.Equal(t, "Region", intent.GroupColumn)
	assert.Equal(t, "Sales", intent.ValueColumn)
	assert.Equal(t, model.AggSum, intent.Aggregation)
	assert.Equal(t, model.SortDesc, intent.SortOrder)
	assert.True(t, intent.IsFollowUp)
	assert.Equal(t, model.FollowUpChartType, intent.FollowUpKind)
	assert.True(t, intent.InheritFromPrevious)
	assert.Equal(t, []string{"West", "East"}, intent.FilterValues)
}

func TestParseIntentJSONMarkdownFence(t *testing.T) {
	content := "Here is my analysis:\n```json\n{\"is_meaningful_query\": true, \"group_column\": \"Region\"}\n```"

	intent, err := ParseIntentJSON(content)
	require.NoError(t, err)
	assert.Equal(t, "Region", intent.GroupColumn)
}

func TestParseIntentJSONProseWrapped(t *testing.T) {
	content := `The user wants a ranking. {"is_meaningful_query": true, "value_column": "Sales"} Hope that helps.`

	intent, err := ParseIntentJSON(content)
	require.NoError(t, err)
	assert.Equal(t, "Sales", intent.ValueColumn)
}

func TestParseIntentJSONDefaultsPermissive(t *testing.T) {
	intent, err := ParseIntentJSON(`{}`)
	require.NoError(t, err)

	assert.True(t, intent.IsMeaningful)
	assert.True(t, intent.CanBeAnswered)
	assert.False(t, intent.RequiresVisualization)
	assert.False(t, intent.IsFollowUp)
}

func TestParseIntentJSONDropsInvalidFields(t *testing.T) {
	content := `{
		"is_meaningful_query": "yes",
		"chart_type": "donut",
		"aggregation": "median",
		"sort_order": "sideways",
		"limit_number": -3,
		"group_column": 42,
		"filter_values": "West"
	}`

	intent, err := ParseIntentJSON(content)
	require.NoError(t, err)

	// wrong-typed and out-of-enum fields are treated as absent
	assert.True(t, intent.IsMeaningful)
	assert.Empty(t, intent.ChartType)
	assert.Empty(t, intent.Aggregation)
	assert.Empty(t, intent.SortOrder)
	assert.Zero(t, intent.Limit)
	assert.Empty(t, intent.GroupColumn)
	assert.Nil(t, intent.FilterValues)
}

func TestParseIntentJSONFractionalLimitDropped(t *testing.T) {
	intent, err := ParseIntentJSON(`{"limit_number": 5.5}`)
	require.NoError(t, err)
	assert.Zero(t, intent.Limit)
}

func TestParseIntentJSONFollowUpWithoutKindCleared(t *testing.T) {
	intent, err := ParseIntentJSON(`{"is_follow_up": true, "inherit_from_previous": true}`)
	require.NoError(t, err)

	assert.False(t, intent.IsFollowUp)
	assert.False(t, intent.InheritFromPrevious)
}

func TestParseIntentJSONFilterValuesSanitized(t *testing.T) {
	intent, err := ParseIntentJSON(`{"filter_values": ["West", 7, "", "  East  "]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"West", "East"}, intent.FilterValues)
}

func TestParseIntentJSONNoObject(t *testing.T) {
	_, err := ParseIntentJSON("I cannot answer that, sorry.")
	require.Error(t, err)
}

func TestParseIntentJSONMalformedObject(t *testing.T) {
	_, err := ParseIntentJSON(`{"is_meaningful_query": tru`)
	require.Error(t, err)
}

func TestParseIntentJSONOversizedContentTruncated(t *testing.T) {
	content := `{"is_meaningful_query": true, "group_column": "Region"}` + strings.Repeat(" ", maxContentLen)

	intent, err := ParseIntentJSON(content)
	require.NoError(t, err)
	assert.Equal(t, "Region", intent.GroupColumn)
}
