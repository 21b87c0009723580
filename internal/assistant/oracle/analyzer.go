package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tabletalk/server/internal/assistant/model"
	"github.com/tabletalk/server/internal/assistant/oracle/prompts"
	errx "github.com/tabletalk/server/internal/core/error"
	logx "github.com/tabletalk/server/pkg/logger"
)

// Analyzer is the intent oracle boundary. Analyze never fails: transport
// errors, timeouts and unusable output all degrade to the deterministic
// fallback intent.
type Analyzer struct {
	cm        einomodel.BaseChatModel
	modelName string
	timeout   time.Duration
	usage     UsageHook
}

// NewAnalyzer builds an intent analyzer around an injected chat model.
func NewAnalyzer(cm einomodel.BaseChatModel, modelName string, timeout time.Duration, usage UsageHook) *Analyzer {
	return &Analyzer{cm: cm, modelName: modelName, timeout: timeout, usage: usage}
}

// Analyze extracts a structured query intent from the utterance given the
// dataset schema and the recent conversation context.
func (a *Analyzer) Analyze(ctx context.Context, utterance string, sd model.SchemaDescriptor, contextSummary string) model.QueryIntent {
	systemPrompt, err := prompts.RenderAnalyzerSystem(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("render analyzer prompt; using fallback intent")
		return FallbackIntent(utterance)
	}

	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.cm.Generate(cctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(buildAnalyzerInput(utterance, sd, contextSummary)),
	})
	if err != nil || resp == nil {
		logx.Warn().Err(errx.WrapOracle(err)).Msg("intent oracle unavailable; using fallback intent")
		return FallbackIntent(utterance)
	}

	if a.usage != nil && resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		a.usage(ctx, a.modelName, resp.ResponseMeta.Usage)
	}

	intent, err := ParseIntentJSON(resp.Content)
	if err != nil {
		logx.Warn().Err(err).Str("content", clip(resp.Content, 300)).Msg("unusable intent oracle output; using fallback intent")
		return FallbackIntent(utterance)
	}
	return intent
}

func buildAnalyzerInput(utterance string, sd model.SchemaDescriptor, contextSummary string) string {
	var b strings.Builder
	b.WriteString("## Dataset Schema:\n")
	b.WriteString(sd.Prompt())
	b.WriteString("\n\n")
	if contextSummary != "" {
		b.WriteString("## Recent Conversation Context:\n")
		b.WriteString(contextSummary)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "## User Question:\n%q\n\nYour Analysis (JSON only):", utterance)
	return b.String()
}
