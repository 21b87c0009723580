package graph

import (
	"context"
	"time"

	"github.com/cloudwego/eino/compose"
	einoschema "github.com/cloudwego/eino/schema"

	"github.com/tabletalk/server/internal/assistant/model"
	"github.com/tabletalk/server/internal/assistant/oracle"
	"github.com/tabletalk/server/internal/assistant/planner"
	"github.com/tabletalk/server/internal/assistant/repo"
	"github.com/tabletalk/server/internal/assistant/resolver"
	"github.com/tabletalk/server/internal/assistant/schema"
	logx "github.com/tabletalk/server/pkg/logger"
)

// Node names for the turn pipeline graph
const (
	NodeContextLoader = "ContextLoader"
	NodeClassifier    = "Classifier"
	NodeCannedReply   = "CannedReply"
	NodeAnalyzer      = "Analyzer"
	NodeResolver      = "Resolver"
	NodePlanner       = "Planner"
	NodeExecutor      = "Executor"
	NodePersister     = "Persister"
)

// NewContextLoaderPreHandler seeds the turn state from the public input.
func NewContextLoaderPreHandler() func(context.Context, model.TurnInput, *model.TurnState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.TurnState) (model.TurnInput, error) {
		s.SessionID = in.SessionID
		s.Utterance = in.Utterance
		s.Table = in.Table
		s.Schema = schema.Extract(in.Table)
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewContextLoaderNode loads conversation history into the turn state. Store
// errors degrade to an empty context so one Redis hiccup never fails a turn.
func NewContextLoaderNode(store model.ConversationStore, maxTurns int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (model.TurnInput, error) {
		turns, err := store.History(ctx, in.SessionID, maxTurns)
		if err != nil {
			logx.Warn().Err(err).Str("sessionID", in.SessionID).Msg("failed to load history; continuing without context")
			turns = nil
		}
		previous, err := store.LastResolvedIntent(ctx, in.SessionID)
		if err != nil {
			logx.Warn().Err(err).Str("sessionID", in.SessionID).Msg("failed to load previous intent; treating turn as fresh")
			previous = nil
		}

		summary := repo.ContextSummary(turns)
		return in, compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			s.ContextSummary = summary
			s.Previous = previous
			return nil
		})
	})
}

// NewClassifierNode routes the utterance into a query category.
func NewClassifierNode(classifier *oracle.Classifier) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (model.QueryCategory, error) {
		var contextSummary string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			contextSummary = s.ContextSummary
			return nil
		}); err != nil {
			return "", err
		}
		return classifier.Classify(ctx, in.Utterance, contextSummary), nil
	})
}

// NewClassifierPostHandler records the category for the downstream nodes.
func NewClassifierPostHandler() func(context.Context, model.QueryCategory, *model.TurnState) (model.QueryCategory, error) {
	return func(ctx context.Context, out model.QueryCategory, s *model.TurnState) (model.QueryCategory, error) {
		s.Category = out
		logx.Debug().Str("sessionID", s.SessionID).Str("category", string(out)).Msg("utterance classified")
		return out, nil
	}
}

// NewChatCondition routes greetings and chitchat to the canned reply;
// everything else runs the full analysis.
func NewChatCondition() func(context.Context, model.QueryCategory) (string, error) {
	return func(ctx context.Context, category model.QueryCategory) (string, error) {
		switch category {
		case model.CategoryGreeting, model.CategoryChitchat:
			return NodeCannedReply, nil
		default:
			return NodeAnalyzer, nil
		}
	}
}

// NewCannedReplyNode produces the deterministic friendly response for
// non-data turns.
func NewCannedReplyNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, category model.QueryCategory) (*model.TurnResult, error) {
		result := &model.TurnResult{Category: category}
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			result.Answer = oracle.FriendlyResponse(category, s.Utterance)
			result.CostUSD = s.TotalCostUSD
			return nil
		})
		return result, err
	})
}

// NewAnalyzerNode extracts the structured intent for a data turn.
func NewAnalyzerNode(analyzer *oracle.Analyzer) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, category model.QueryCategory) (model.QueryIntent, error) {
		var utterance, contextSummary string
		var sd model.SchemaDescriptor
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			utterance = s.Utterance
			contextSummary = s.ContextSummary
			sd = s.Schema
			return nil
		}); err != nil {
			return model.QueryIntent{}, err
		}
		return analyzer.Analyze(ctx, utterance, sd, contextSummary), nil
	})
}

// NewResolverNode merges the raw intent with the previous turn's resolved
// intent and validates columns against the schema.
func NewResolverNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, intent model.QueryIntent) (*model.ResolvedIntent, error) {
		var resolved model.ResolvedIntent
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			resolved = resolver.Resolve(intent, s.Previous, s.Schema)
			s.Resolved = &resolved
			return nil
		})
		return &resolved, err
	})
}

// NewPlannerNode renders the resolved intent as an execution plan.
func NewPlannerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resolved *model.ResolvedIntent) (string, error) {
		var plan string
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			plan = planner.Synthesize(*resolved, s.Utterance)
			s.Plan = plan
			return nil
		})
		return plan, err
	})
}

// NewExecutorNode runs the plan against the dataset and assembles the result.
func NewExecutorNode(engine model.ExecutionEngine) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, plan string) (*model.TurnResult, error) {
		result := &model.TurnResult{}
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			result.Category = s.Category
			result.Plan = s.Plan
			result.Resolved = s.Resolved
			answer, err := engine.Execute(ctx, *s.Resolved, plan, s.Utterance, s.Table)
			if err != nil {
				return err
			}
			result.Answer = answer.Text
			result.Chart = answer.Chart
			result.CostUSD = s.TotalCostUSD
			return nil
		}); err != nil {
			return nil, err
		}
		return result, nil
	})
}

// NewPersisterNode appends the user and assistant turns to the store. The
// cancellation check runs before any append so an abandoned turn leaves no
// partial trace.
func NewPersisterNode(store model.ConversationStore) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, result *model.TurnResult) (*model.TurnResult, error) {
		if err := ctx.Err(); err != nil {
			logx.Warn().Err(err).Msg("turn cancelled before persistence; nothing stored")
			return nil, err
		}

		var sessionID, utterance string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			sessionID = s.SessionID
			utterance = s.Utterance
			result.CostUSD = s.TotalCostUSD
			return nil
		}); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		userTurn := model.ConversationTurn{
			SessionID: sessionID,
			Role:      model.RoleUser,
			Text:      utterance,
			Timestamp: now,
		}
		assistantTurn := model.ConversationTurn{
			SessionID: sessionID,
			Role:      model.RoleAssistant,
			Text:      result.Answer,
			Timestamp: now,
		}
		// Rejected and chat turns persist without an intent so the next
		// turn never inherits from them.
		if result.Resolved != nil && result.Resolved.CanBeAnswered {
			assistantTurn.ResolvedIntent = result.Resolved
		}
		if result.Chart != nil {
			assistantTurn.ChartSummary = &model.ChartSummary{Type: result.Chart.Type}
		}

		if err := store.Append(ctx, userTurn); err != nil {
			logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to persist user turn")
			return result, nil
		}
		if err := store.Append(ctx, assistantTurn); err != nil {
			logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to persist assistant turn")
		}
		return result, nil
	})
}

// newUsageHook accumulates oracle cost into the turn state.
func newUsageHook() oracle.UsageHook {
	return func(ctx context.Context, modelName string, usage *einoschema.TokenUsage) {
		pricing := model.ResolvePricing(modelName)
		inC, outC, totalC := model.ComputeCost(usage, pricing)
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			s.TotalCostUSD += totalC
			logx.Debug().
				Str("sessionID", s.SessionID).
				Str("model", modelName).
				Int("prompt_tokens", usage.PromptTokens).
				Int("completion_tokens", usage.CompletionTokens).
				Int("total_tokens", usage.TotalTokens).
				Float64("input_cost_usd", inC).
				Float64("output_cost_usd", outC).
				Float64("total_cost_usd", totalC).
				Msg("oracle usage")
			return nil
		}); err != nil {
			logx.Warn().Err(err).Msg("failed to record oracle usage")
		}
	}
}
