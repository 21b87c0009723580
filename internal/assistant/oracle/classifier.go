package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tabletalk/server/internal/assistant/model"
	"github.com/tabletalk/server/internal/assistant/oracle/prompts"
	errx "github.com/tabletalk/server/internal/core/error"
	logx "github.com/tabletalk/server/pkg/logger"
)

// UsageHook receives token usage after a successful oracle call so the caller
// can account for cost. The context is the pipeline invocation context.
type UsageHook func(ctx context.Context, modelName string, usage *schema.TokenUsage)

// Classifier is the conversation classifier oracle boundary. Classify never
// fails: transport errors, timeouts and unusable output all take the
// deterministic heuristic path.
type Classifier struct {
	cm        einomodel.BaseChatModel
	modelName string
	timeout   time.Duration
	usage     UsageHook
}

// NewClassifier builds a classifier around an injected chat model.
func NewClassifier(cm einomodel.BaseChatModel, modelName string, timeout time.Duration, usage UsageHook) *Classifier {
	return &Classifier{cm: cm, modelName: modelName, timeout: timeout, usage: usage}
}

// Classify routes an utterance into one of the four query categories.
func (c *Classifier) Classify(ctx context.Context, utterance, contextSummary string) model.QueryCategory {
	systemPrompt, err := prompts.RenderClassifierSystem(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("render classifier prompt; using heuristic")
		return HeuristicClassify(utterance, contextSummary)
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.cm.Generate(cctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(buildClassifierInput(utterance, contextSummary)),
	})
	if err != nil || resp == nil {
		logx.Warn().Err(errx.WrapOracle(err)).Msg("classifier oracle unavailable; using heuristic")
		return HeuristicClassify(utterance, contextSummary)
	}

	if c.usage != nil && resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		c.usage(ctx, c.modelName, resp.ResponseMeta.Usage)
	}

	return parseCategory(resp.Content)
}

func buildClassifierInput(utterance, contextSummary string) string {
	var b strings.Builder
	if contextSummary != "" {
		b.WriteString("## Recent Conversation History:\n")
		b.WriteString(contextSummary)
		b.WriteString("\n\nNOTE: If there was recent data analysis discussion, short follow-up messages are likely DATA_QUESTION.\n\n")
	}
	fmt.Fprintf(&b, "User message: %q\n\nClassification:", utterance)
	return b.String()
}

// parseCategory scans the oracle's free-text reply for a category token.
// DATA_QUESTION is checked first: a false positive there costs one
// unnecessary analysis, a false negative silently drops a real question.
func parseCategory(reply string) model.QueryCategory {
	upper := strings.ToUpper(reply)
	switch {
	case strings.Contains(upper, string(model.CategoryDataQuestion)):
		return model.CategoryDataQuestion
	case strings.Contains(upper, string(model.CategoryGreeting)):
		return model.CategoryGreeting
	case strings.Contains(upper, string(model.CategoryChitchat)):
		return model.CategoryChitchat
	case strings.Contains(upper, string(model.CategoryUnclear)):
		return model.CategoryUnclear
	default:
		logx.Warn().Str("reply", clip(reply, 200)).Msg("unexpected classifier reply; defaulting to DATA_QUESTION")
		return model.CategoryDataQuestion
	}
}

const maxGreetingLen = 20

var greetingWords = []string{"hi", "hello", "hey", "howdy", "yo"}

var greetingPhrases = []string{"good morning", "good afternoon", "good evening"}

var dataMarkers = []string{
	"[DATA ANALYSIS SESSION",
	"[executed data analysis]",
	"[created ",
}

// HeuristicClassify is the oracle-free fallback: short utterances carrying a
// greeting token with no data-analysis markers in the context classify as
// GREETING; everything else is DATA_QUESTION.
func HeuristicClassify(utterance, contextSummary string) model.QueryCategory {
	q := strings.ToLower(strings.TrimSpace(utterance))
	if len(q) < maxGreetingLen && !hasDataMarker(contextSummary) && hasGreetingToken(q) {
		return model.CategoryGreeting
	}
	return model.CategoryDataQuestion
}

// hasGreetingToken matches greeting words on word boundaries so that
// utterances like "show this" or "which one" never read as greetings.
func hasGreetingToken(q string) bool {
	for _, phrase := range greetingPhrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	for _, word := range wordTokens(q) {
		for _, tok := range greetingWords {
			if word == tok {
				return true
			}
		}
	}
	return false
}

func wordTokens(q string) []string {
	return strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func hasDataMarker(contextSummary string) bool {
	for _, m := range dataMarkers {
		if strings.Contains(contextSummary, m) {
			return true
		}
	}
	return false
}
