package graph

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletalk/server/internal/assistant/engine"
	"github.com/tabletalk/server/internal/assistant/model"
	"github.com/tabletalk/server/internal/assistant/repo"
)

func TestNewChatCondition(t *testing.T) {
	cond := NewChatCondition()

	tests := []struct {
		category model.QueryCategory
		want     string
	}{
		{model.CategoryGreeting, NodeCannedReply},
		{model.CategoryChitchat, NodeCannedReply},
		{model.CategoryDataQuestion, NodeAnalyzer},
		{model.CategoryUnclear, NodeAnalyzer},
	}

	for _, tt := range tests {
		got, err := cond(context.Background(), tt.category)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, string(tt.category))
	}
}

func TestBuildGraphValidation(t *testing.T) {
	ctx := context.Background()

	_, err := BuildGraph(ctx, nil)
	assert.Error(t, err)

	_, err = BuildGraph(ctx, &GraphConfig{})
	assert.Error(t, err)
}

func TestBuildPipelineValidation(t *testing.T) {
	ctx := context.Background()

	_, err := BuildPipeline(ctx, Config{Engine: engine.NewDuckDB()})
	assert.Error(t, err)

	_, err = BuildPipeline(ctx, Config{Store: repo.NewMemoryConversationStore()})
	assert.Error(t, err)
}

func TestSessionLockIsStable(t *testing.T) {
	r := &pipelineRunner{locks: map[string]*sync.Mutex{}}

	first := r.sessionLock("s1")
	second := r.sessionLock("s1")
	other := r.sessionLock("s2")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
}
