package resolver

import (
	"strings"
	"unicode"

	"github.com/tabletalk/server/internal/assistant/model"
)

// Fuzzy column matching. The oracle may paraphrase column names ("region" for
// "Sales Region") while the execution engine requires exact schema
// identifiers. Strategies are tried in a fixed priority: exact
// case-insensitive match, substring either direction, token overlap, synonym
// table. Scores are monotonic in that priority so a weaker strategy can never
// outrank a stronger one; ties keep the first occurrence in schema order.
const (
	scoreExact        = 1.0
	scoreSubstringLow = 0.6  // + up to 0.15 by length ratio
	scoreOverlapLow   = 0.45 // + up to 0.10 by token ratio
	scoreSynonym      = 0.42
	matchThreshold    = 0.4
)

// synonymGroups holds interchangeable column vocabularies seen in practice.
// Membership is checked per token, so "Sales Region" matches the "region"
// group through its second token.
var synonymGroups = [][]string{
	{"region", "state", "province", "area", "territory"},
	{"sales", "revenue", "turnover"},
	{"profit", "margin", "earnings"},
	{"category", "type", "segment"},
	{"customer", "client", "buyer"},
	{"product", "item", "sku"},
	{"date", "day", "time", "month", "year"},
	{"quantity", "count", "units"},
	{"city", "town"},
	{"price", "cost"},
}

var synonymIndex = buildSynonymIndex()

func buildSynonymIndex() map[string]int {
	idx := make(map[string]int)
	for g, group := range synonymGroups {
		for _, w := range group {
			idx[w] = g
		}
	}
	return idx
}

// MatchColumn resolves a natural-language column reference to the
// best-scoring schema column. The second return is false when no candidate
// clears the similarity threshold.
func MatchColumn(target string, columns []string) (string, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", false
	}

	best := ""
	bestScore := 0.0
	for _, col := range columns {
		// strictly greater keeps the first occurrence on ties
		if s := scoreMatch(target, col); s > bestScore {
			best, bestScore = col, s
		}
	}
	if bestScore < matchThreshold {
		return "", false
	}
	return best, true
}

func scoreMatch(target, column string) float64 {
	lt := strings.ToLower(strings.TrimSpace(target))
	lc := strings.ToLower(strings.TrimSpace(column))
	if lt == "" || lc == "" {
		return 0
	}

	if lt == lc {
		return scoreExact
	}

	if strings.Contains(lc, lt) || strings.Contains(lt, lc) {
		return scoreSubstringLow + 0.15*lengthRatio(lt, lc)
	}

	tTokens := tokenize(lt)
	cTokens := tokenize(lc)
	if ratio := overlapRatio(tTokens, cTokens); ratio > 0 {
		return scoreOverlapLow + 0.10*ratio
	}

	if shareSynonym(tTokens, cTokens) {
		return scoreSynonym
	}

	return 0
}

func lengthRatio(a, b string) float64 {
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func overlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	shared := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	max := len(a)
	if len(b) > max {
		max = len(b)
	}
	return float64(shared) / float64(max)
}

func shareSynonym(a, b []string) bool {
	for _, ta := range a {
		ga, ok := synonymIndex[ta]
		if !ok {
			continue
		}
		for _, tb := range b {
			if gb, ok := synonymIndex[tb]; ok && ga == gb {
				return true
			}
		}
	}
	return false
}

// reconcileFilterColumn re-validates the resolved grouping column against the
// sampled data for filter follow-ups: when the filter values do not intersect
// the group column's sample, another column whose sample matches is
// substituted. With no match anywhere the column is left unchanged and the
// mismatch is deferred to the execution engine.
func reconcileFilterColumn(group string, filters []string, sd model.SchemaDescriptor) string {
	if group == "" || len(filters) == 0 {
		return group
	}
	if sampleMatchesAny(sd.Sample(group), filters) {
		return group
	}
	for _, col := range sd.Columns {
		if col == group {
			continue
		}
		if sampleMatchesAny(sd.Sample(col), filters) {
			return col
		}
	}
	return group
}

func sampleMatchesAny(sample string, filters []string) bool {
	s := strings.ToLower(strings.TrimSpace(sample))
	if s == "" || s == "n/a" {
		return false
	}
	for _, f := range filters {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if strings.Contains(s, f) || strings.Contains(f, s) {
			return true
		}
	}
	return false
}
