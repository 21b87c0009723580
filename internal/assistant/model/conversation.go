package model

import (
	"context"
	"time"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChartSummary records which chart kind a past turn rendered, for context
// building ("[created pie chart]") without persisting the full payload.
type ChartSummary struct {
	Type ChartType `json:"type"`
}

// ConversationTurn is one append-only entry in a session's log. Assistant
// turns that completed an analysis carry the resolved intent so the next
// turn's resolver can inherit from it; rejected turns are persisted without
// one so they are visible as history but never inherited from.
type ConversationTurn struct {
	SessionID      string          `json:"session_id"`
	Role           Role            `json:"role"`
	Text           string          `json:"text"`
	ResolvedIntent *ResolvedIntent `json:"resolved_intent,omitempty"`
	ChartSummary   *ChartSummary   `json:"chart_summary,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// ConversationStore is the append-only per-session turn log. Implementations
// must give read-your-writes ordering within a session: LastResolvedIntent
// reflects every Append that completed before the current turn started.
type ConversationStore interface {
	// Append adds a turn to the session's log.
	Append(ctx context.Context, turn ConversationTurn) error

	// LastResolvedIntent returns the newest resolved intent stored for the
	// session, or nil when no analysis has completed yet.
	LastResolvedIntent(ctx context.Context, sessionID string) (*ResolvedIntent, error)

	// History returns up to n most recent turns in chronological order.
	History(ctx context.Context, sessionID string, n int) ([]ConversationTurn, error)

	// Clear removes all turns for a session.
	Clear(ctx context.Context, sessionID string) error
}

// ChartPayload is the opaque pass-through the frontend renders.
type ChartPayload struct {
	Type  ChartType        `json:"type"`
	Data  []map[string]any `json:"data"`
	XKey  string           `json:"xKey"`
	YKey  string           `json:"yKey"`
	Title string           `json:"title,omitempty"`
}

// AnswerResult is what the execution engine hands back for one turn.
type AnswerResult struct {
	Text  string
	Chart *ChartPayload
}
