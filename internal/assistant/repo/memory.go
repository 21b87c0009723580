package repo

import (
	"context"
	"sync"

	"github.com/tabletalk/server/internal/assistant/model"
)

// MemoryConversationStore keeps session logs in process memory. It backs
// tests and the degraded mode used when no Redis URL is configured; turns do
// not survive a restart.
type MemoryConversationStore struct {
	mu    sync.RWMutex
	turns map[string][]model.ConversationTurn
}

func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{turns: make(map[string][]model.ConversationTurn)}
}

func (m *MemoryConversationStore) Append(ctx context.Context, turn model.ConversationTurn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[turn.SessionID] = append(m.turns[turn.SessionID], turn)
	return nil
}

func (m *MemoryConversationStore) LastResolvedIntent(ctx context.Context, sessionID string) (*model.ResolvedIntent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestResolvedIntent(m.turns[sessionID]), nil
}

func (m *MemoryConversationStore) History(ctx context.Context, sessionID string, n int) ([]model.ConversationTurn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.turns[sessionID]
	out := make([]model.ConversationTurn, len(stored))
	copy(out, stored)
	return tail(out, n), nil
}

func (m *MemoryConversationStore) Clear(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, sessionID)
	return nil
}

var _ model.ConversationStore = (*MemoryConversationStore)(nil)
