package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletalk/server/internal/assistant/model"
)

func salesSchema() model.SchemaDescriptor {
	return model.SchemaDescriptor{
		Columns: []string{"Region", "Product", "Sales", "Profit"},
		SampleValues: map[string]string{
			"Region":  "West",
			"Product": "Widget",
			"Sales":   "1200.50",
			"Profit":  "300.25",
		},
		RowCount: 100,
	}
}

func previousIntent() *model.ResolvedIntent {
	return &model.ResolvedIntent{QueryIntent: model.QueryIntent{
		IsMeaningful:          true,
		CanBeAnswered:         true,
		RequiresVisualization: true,
		ChartType:             model.ChartBar,
		Limit:                 5,
		GroupColumn:           "Region",
		ValueColumn:           "Sales",
		Aggregation:           model.AggSum,
		SortOrder:             model.SortDesc,
	}}
}

func TestResolveFreshQueryAppliesDefaults(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:  true,
		CanBeAnswered: true,
		GroupColumn:   "Region",
		ValueColumn:   "Sales",
	}

	out := Resolve(current, nil, salesSchema())

	require.True(t, out.CanBeAnswered)
	assert.Equal(t, model.AggSum, out.Aggregation)
	assert.Equal(t, model.SortDesc, out.SortOrder)
	assert.Equal(t, 10, out.Limit)
	assert.False(t, out.IsFollowUp)
}

func TestResolveFreshQueryNoLimitWithoutGrouping(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:  true,
		CanBeAnswered: true,
		ValueColumn:   "Sales",
		Aggregation:   model.AggSum,
	}

	out := Resolve(current, nil, salesSchema())

	require.True(t, out.CanBeAnswered)
	assert.Zero(t, out.Limit)
}

func TestResolveFreshQueryIgnoresPrevious(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:  true,
		CanBeAnswered: true,
		GroupColumn:   "Product",
		ValueColumn:   "Profit",
		Aggregation:   model.AggMean,
	}

	out := Resolve(current, previousIntent(), salesSchema())

	assert.Equal(t, "Product", out.GroupColumn)
	assert.Equal(t, "Profit", out.ValueColumn)
	assert.Equal(t, model.AggMean, out.Aggregation)
	assert.False(t, out.RequiresVisualization)
	assert.Empty(t, out.ChartType)
	assert.False(t, out.IsFollowUp)
}

func TestResolveFollowUpWithoutPreviousDegradesToFresh(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:        true,
		CanBeAnswered:       true,
		IsFollowUp:          true,
		FollowUpKind:        model.FollowUpLimit,
		InheritFromPrevious: true,
		Limit:               3,
	}

	out := Resolve(current, nil, salesSchema())

	assert.False(t, out.IsFollowUp)
	assert.Empty(t, out.FollowUpKind)
	assert.False(t, out.InheritFromPrevious)
	assert.Equal(t, 3, out.Limit)
}

func TestResolveLimitChangeFollowUp(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:        true,
		CanBeAnswered:       true,
		IsFollowUp:          true,
		FollowUpKind:        model.FollowUpLimit,
		InheritFromPrevious: true,
		Limit:               10,
	}

	out := Resolve(current, previousIntent(), salesSchema())

	require.True(t, out.CanBeAnswered)
	assert.Equal(t, 10, out.Limit)
	assert.Equal(t, "Region", out.GroupColumn)
	assert.Equal(t, "Sales", out.ValueColumn)
	assert.Equal(t, model.AggSum, out.Aggregation)
	assert.Equal(t, model.ChartBar, out.ChartType)
	assert.True(t, out.RequiresVisualization)
}

func TestResolveChartTypeChangeFollowUp(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:        true,
		CanBeAnswered:       true,
		IsFollowUp:          true,
		FollowUpKind:        model.FollowUpChartType,
		InheritFromPrevious: true,
		ChartType:           model.ChartPie,
	}

	out := Resolve(current, previousIntent(), salesSchema())

	require.True(t, out.CanBeAnswered)
	assert.True(t, out.RequiresVisualization)
	assert.Equal(t, model.ChartPie, out.ChartType)
	assert.Equal(t, 5, out.Limit)
	assert.Equal(t, "Region", out.GroupColumn)
	assert.Equal(t, "Sales", out.ValueColumn)
}

func TestResolveChartTypeChangeForcesVisualization(t *testing.T) {
	prev := previousIntent()
	prev.RequiresVisualization = false
	prev.ChartType = ""

	current := model.QueryIntent{
		IsMeaningful:        true,
		CanBeAnswered:       true,
		IsFollowUp:          true,
		FollowUpKind:        model.FollowUpChartType,
		InheritFromPrevious: true,
		ChartType:           model.ChartLine,
	}

	out := Resolve(current, prev, salesSchema())

	assert.True(t, out.RequiresVisualization)
	assert.Equal(t, model.ChartLine, out.ChartType)
}

func TestResolveColumnChangeFollowUpKeepsLimit(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:        true,
		CanBeAnswered:       true,
		IsFollowUp:          true,
		FollowUpKind:        model.FollowUpColumn,
		InheritFromPrevious: true,
		GroupColumn:         "Product",
	}

	out := Resolve(current, previousIntent(), salesSchema())

	assert.Equal(t, "Product", out.GroupColumn)
	assert.Equal(t, "Sales", out.ValueColumn)
	assert.Equal(t, 5, out.Limit)
}

func TestResolveFilterChangeFollowUp(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:        true,
		CanBeAnswered:       true,
		IsFollowUp:          true,
		FollowUpKind:        model.FollowUpFilter,
		InheritFromPrevious: true,
		FilterValues:        []string{"West"},
	}

	out := Resolve(current, previousIntent(), salesSchema())

	require.True(t, out.CanBeAnswered)
	assert.Equal(t, []string{"West"}, out.FilterValues)
	assert.Equal(t, "Region", out.GroupColumn)
	assert.Equal(t, 5, out.Limit)
	assert.True(t, out.RequiresVisualization)
}

func TestResolveFilterChangeSubstitutesMatchingColumn(t *testing.T) {
	// Filter value matches the Product sample, not the inherited Region.
	current := model.QueryIntent{
		IsMeaningful:        true,
		CanBeAnswered:       true,
		IsFollowUp:          true,
		FollowUpKind:        model.FollowUpFilter,
		InheritFromPrevious: true,
		FilterValues:        []string{"Widget"},
	}

	out := Resolve(current, previousIntent(), salesSchema())

	assert.Equal(t, "Product", out.GroupColumn)
}

func TestResolveFilterChangeNoSampleMatchLeavesColumn(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:        true,
		CanBeAnswered:       true,
		IsFollowUp:          true,
		FollowUpKind:        model.FollowUpFilter,
		InheritFromPrevious: true,
		FilterValues:        []string{"Atlantis"},
	}

	out := Resolve(current, previousIntent(), salesSchema())

	// The mismatch is deferred to the execution engine.
	require.True(t, out.CanBeAnswered)
	assert.Equal(t, "Region", out.GroupColumn)
}

func TestResolveNonMeaningfulInput(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:      false,
		SuggestedResponse: "Please ask a clear question about your data.",
		GroupColumn:       "Region",
	}

	out := Resolve(current, previousIntent(), salesSchema())

	assert.False(t, out.IsMeaningful)
	assert.False(t, out.CanBeAnswered)
	assert.Equal(t, "Please ask a clear question about your data.", out.SuggestedResponse)
	assert.Empty(t, out.GroupColumn)
	assert.Zero(t, out.Limit)
}

func TestResolveUnanswerablePassesThrough(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:  true,
		CanBeAnswered: false,
		ErrorMessage:  "The data has no revenue information.",
	}

	out := Resolve(current, previousIntent(), salesSchema())

	assert.False(t, out.CanBeAnswered)
	assert.Equal(t, "The data has no revenue information.", out.ErrorMessage)
	assert.Empty(t, out.GroupColumn)
}

func TestResolveFuzzyColumnRepair(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:  true,
		CanBeAnswered: true,
		GroupColumn:   "region",
		ValueColumn:   "revenue",
	}

	out := Resolve(current, nil, salesSchema())

	require.True(t, out.CanBeAnswered)
	assert.Equal(t, "Region", out.GroupColumn)
	assert.Equal(t, "Sales", out.ValueColumn)
}

func TestResolveUnknownColumnRejects(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:  true,
		CanBeAnswered: true,
		GroupColumn:   "weather",
		ValueColumn:   "Sales",
	}

	out := Resolve(current, nil, salesSchema())

	assert.False(t, out.CanBeAnswered)
	assert.Empty(t, out.GroupColumn)
	assert.Contains(t, out.ErrorMessage, "weather")
	assert.Contains(t, out.ErrorMessage, "Region, Product, Sales, Profit")
}

func TestResolveVisualizationDefaultsToBar(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:          true,
		CanBeAnswered:         true,
		RequiresVisualization: true,
		GroupColumn:           "Region",
		ValueColumn:           "Sales",
	}

	out := Resolve(current, nil, salesSchema())

	assert.Equal(t, model.ChartBar, out.ChartType)
}

func TestResolveIsIdempotentForFreshQueries(t *testing.T) {
	current := model.QueryIntent{
		IsMeaningful:          true,
		CanBeAnswered:         true,
		RequiresVisualization: true,
		GroupColumn:           "Region",
		ValueColumn:           "Sales",
	}

	once := Resolve(current, nil, salesSchema())
	twice := Resolve(once.AsQuery(), nil, salesSchema())

	assert.Equal(t, once, twice)
}
