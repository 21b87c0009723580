package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabletalk/server/internal/assistant/model"
)

func TestFriendlyResponse(t *testing.T) {
	tests := []struct {
		name      string
		category  model.QueryCategory
		utterance string
		contains  string
	}{
		{"morning greeting", model.CategoryGreeting, "Good morning!", "Good morning"},
		{"generic greeting", model.CategoryGreeting, "hi", "data analysis assistant"},
		{"how are you", model.CategoryChitchat, "How are you today?", "doing great"},
		{"capabilities", model.CategoryChitchat, "what can you do?", "visualizations"},
		{"thanks", model.CategoryChitchat, "thanks a lot", "You're welcome"},
		{"generic chitchat", model.CategoryChitchat, "nice weather today", "data analysis assistant"},
		{"unclear", model.CategoryUnclear, "hmm maybe", "could you ask a specific question"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FriendlyResponse(tt.category, tt.utterance)
			assert.Contains(t, got, tt.contains)
		})
	}
}

func TestFriendlyResponseDeterministic(t *testing.T) {
	first := FriendlyResponse(model.CategoryGreeting, "Hello!")
	second := FriendlyResponse(model.CategoryGreeting, "Hello!")
	assert.Equal(t, first, second)
}
