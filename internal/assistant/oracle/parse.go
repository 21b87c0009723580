package oracle

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	errx "github.com/tabletalk/server/internal/core/error"
	logx "github.com/tabletalk/server/pkg/logger"

	"github.com/tabletalk/server/internal/assistant/model"
)

// basic safety limits to avoid pathological oracle outputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxFilters    = 32
	maxFilterLen  = 256
	maxMessageLen = 2048
)

// ParseIntentJSON validates the intent oracle's raw output against the
// documented contract. The output may wrap the JSON object in markdown fences
// or prose. Any field whose type or enum value does not match the contract is
// treated as absent, never as a hard error; only unusable output (no JSON
// object at all) produces an error, which callers recover from via the
// deterministic fallback.
func ParseIntentJSON(content string) (intent model.QueryIntent, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "intent_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("intent parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			intent = model.QueryIntent{}
		}
	}()

	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "intent_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}

	raw := extractJSON(content)
	if raw == "" {
		return model.QueryIntent{}, errx.WrapMalformedOracle(fmt.Errorf("no JSON object in output"))
	}

	var fields map[string]any
	if uerr := json.Unmarshal([]byte(raw), &fields); uerr != nil {
		return model.QueryIntent{}, errx.WrapMalformedOracle(uerr)
	}

	var dropped []string
	drop := func(name string) {
		dropped = append(dropped, name)
	}

	// Meaningfulness flags default to the permissive side: a missing flag
	// must not silently reject a real question.
	intent = model.QueryIntent{IsMeaningful: true, CanBeAnswered: true}

	if v, ok := boolField(fields, "is_meaningful_query", drop); ok {
		intent.IsMeaningful = v
	}
	if v, ok := boolField(fields, "can_be_answered", drop); ok {
		intent.CanBeAnswered = v
	}
	if v, ok := boolField(fields, "requires_visualization", drop); ok {
		intent.RequiresVisualization = v
	}
	if v, ok := boolField(fields, "is_follow_up", drop); ok {
		intent.IsFollowUp = v
	}
	if v, ok := boolField(fields, "inherit_from_previous", drop); ok {
		intent.InheritFromPrevious = v
	}

	if s, ok := stringField(fields, "chart_type", drop); ok {
		if ct, valid := model.ParseChartType(s); valid {
			intent.ChartType = ct
		} else {
			drop("chart_type")
		}
	}
	if s, ok := stringField(fields, "aggregation", drop); ok {
		if agg, valid := model.ParseAggregation(s); valid {
			intent.Aggregation = agg
		} else {
			drop("aggregation")
		}
	}
	if s, ok := stringField(fields, "sort_order", drop); ok {
		if so, valid := model.ParseSortOrder(s); valid {
			intent.SortOrder = so
		} else {
			drop("sort_order")
		}
	}
	if s, ok := stringField(fields, "follow_up_type", drop); ok {
		if fk, valid := model.ParseFollowUpKind(s); valid {
			intent.FollowUpKind = fk
		} else {
			drop("follow_up_type")
		}
	}

	if n, ok := intField(fields, "limit_number", drop); ok {
		if n > 0 {
			intent.Limit = n
		} else {
			drop("limit_number")
		}
	}

	if s, ok := stringField(fields, "group_column", drop); ok {
		intent.GroupColumn = strings.TrimSpace(s)
	}
	if s, ok := stringField(fields, "value_column", drop); ok {
		intent.ValueColumn = strings.TrimSpace(s)
	}
	if s, ok := stringField(fields, "error_message", drop); ok {
		intent.ErrorMessage = clip(s, maxMessageLen)
	}
	if s, ok := stringField(fields, "suggested_response", drop); ok {
		intent.SuggestedResponse = clip(s, maxMessageLen)
	}

	intent.FilterValues = filterValues(fields, drop)

	// A follow-up without a recognized kind is not actionable as one.
	if intent.IsFollowUp && intent.FollowUpKind == "" {
		intent.IsFollowUp = false
		intent.InheritFromPrevious = false
	}

	if len(dropped) > 0 {
		logx.Warn().
			Str("component", "intent_parser").
			Strs("dropped_fields", dropped).
			Msg("oracle output fields failed validation; treated as absent")
	}

	return intent, nil
}

// extractJSON pulls the JSON object out of oracle output that may wrap it in
// markdown code fences or surrounding prose.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			text = strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func boolField(fields map[string]any, name string, drop func(string)) (bool, bool) {
	raw, present := fields[name]
	if !present || raw == nil {
		return false, false
	}
	v, ok := raw.(bool)
	if !ok {
		drop(name)
		return false, false
	}
	return v, true
}

func stringField(fields map[string]any, name string, drop func(string)) (string, bool) {
	raw, present := fields[name]
	if !present || raw == nil {
		return "", false
	}
	v, ok := raw.(string)
	if !ok {
		drop(name)
		return "", false
	}
	if strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func intField(fields map[string]any, name string, drop func(string)) (int, bool) {
	raw, present := fields[name]
	if !present || raw == nil {
		return 0, false
	}
	v, ok := raw.(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		drop(name)
		return 0, false
	}
	return int(v), true
}

func filterValues(fields map[string]any, drop func(string)) []string {
	raw, present := fields["filter_values"]
	if !present || raw == nil {
		return nil
	}
	arr, ok := raw.([]any)
	if !ok {
		drop("filter_values")
		return nil
	}
	var out []string
	for _, item := range arr {
		if len(out) >= maxFilters {
			break
		}
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, clip(s, maxFilterLen))
	}
	return out
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
