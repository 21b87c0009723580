package oracle

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/tabletalk/server/internal/assistant/model"
)

// ClarificationResponse is the canned reply for input the fallback cannot
// make sense of.
const ClarificationResponse = "I couldn't understand your request. Please ask a clear question about your data, like 'What are the top 5 products by sales?' or 'Show total revenue by region'."

// chartWords maps canonical chart-type words the fallback recognises in a
// bare follow-up like "pie" or "as a bar chart".
var chartWords = []model.ChartType{
	model.ChartPie,
	model.ChartScatter,
	model.ChartArea,
	model.ChartLine,
	model.ChartBar,
}

// FallbackIntent is the deterministic substitute when the intent oracle is
// unavailable or returns unusable output. It handles the two follow-up shapes
// that can be recognised without language understanding (a bare integer, a
// chart-type word), rejects input with fewer than two alphabetic tokens, and
// otherwise produces a safe, chart-free default.
func FallbackIntent(utterance string) model.QueryIntent {
	q := strings.ToLower(strings.TrimSpace(utterance))

	if n, err := strconv.Atoi(q); err == nil && n > 0 {
		return model.QueryIntent{
			IsMeaningful:        true,
			CanBeAnswered:       true,
			Limit:               n,
			IsFollowUp:          true,
			FollowUpKind:        model.FollowUpLimit,
			InheritFromPrevious: true,
		}
	}

	tokens := wordTokens(q)
	for _, ct := range chartWords {
		if containsToken(tokens, string(ct)) {
			return model.QueryIntent{
				IsMeaningful:          true,
				CanBeAnswered:         true,
				RequiresVisualization: true,
				ChartType:             ct,
				IsFollowUp:            true,
				FollowUpKind:          model.FollowUpChartType,
				InheritFromPrevious:   true,
			}
		}
	}

	if alphabeticTokens(q) < 2 {
		return model.QueryIntent{
			IsMeaningful:      false,
			CanBeAnswered:     false,
			SuggestedResponse: ClarificationResponse,
		}
	}

	// Safe default: run the analysis without a chart.
	return model.QueryIntent{
		IsMeaningful:  true,
		CanBeAnswered: true,
	}
}

func containsToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

func alphabeticTokens(s string) int {
	count := 0
	for _, tok := range strings.Fields(s) {
		for _, r := range tok {
			if unicode.IsLetter(r) {
				count++
				break
			}
		}
	}
	return count
}
