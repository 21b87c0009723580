package model

import (
	"context"

	"github.com/tabletalk/server/internal/assistant/dataset"
)

// TurnInput is the public input for processing one utterance.
type TurnInput struct {
	SessionID string         `json:"session_id"`
	Utterance string         `json:"utterance"`
	Table     *dataset.Table `json:"-"`
}

// TurnResult is the outcome of one pipeline run.
type TurnResult struct {
	Category QueryCategory   `json:"category"`
	Answer   string          `json:"answer"`
	Plan     string          `json:"plan,omitempty"`
	Resolved *ResolvedIntent `json:"resolved_intent,omitempty"`
	Chart    *ChartPayload   `json:"chart,omitempty"`
	CostUSD  float64         `json:"cost_usd"`
}

// TurnState stores per-invocation state for the pipeline graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState.
//   - All reads/writes happen only inside state handlers
//     (WithStatePreHandler, WithStatePostHandler, compose.ProcessState),
//     which the graph runtime serializes.
//   - Cross-turn persistence goes through the ConversationStore, never
//     through this struct.
type TurnState struct {
	SessionID string
	Utterance string
	Table     *dataset.Table
	Schema    SchemaDescriptor

	ContextSummary string
	Category       QueryCategory
	Previous       *ResolvedIntent
	Resolved       *ResolvedIntent
	Plan           string

	// Accumulated total oracle cost (USD) for this turn.
	TotalCostUSD float64
}

// ExecutionEngine is the boundary the core consumes but does not implement:
// it turns a fully resolved intent plus the dataset into an answer.
type ExecutionEngine interface {
	Execute(ctx context.Context, resolved ResolvedIntent, plan, utterance string, table *dataset.Table) (*AnswerResult, error)
}
