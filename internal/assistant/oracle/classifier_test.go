package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"

	"github.com/tabletalk/server/internal/assistant/model"
)

// fakeChatModel returns a scripted reply or error.
type fakeChatModel struct {
	reply *schema.Message
	err   error
}

func (f *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

var _ einomodel.BaseChatModel = (*fakeChatModel)(nil)

func newTestClassifier(cm einomodel.BaseChatModel) *Classifier {
	return NewClassifier(cm, "gemini-2.5-flash", 5*time.Second, nil)
}

func TestClassifyParsesOracleReply(t *testing.T) {
	tests := []struct {
		reply string
		want  model.QueryCategory
	}{
		{"DATA_QUESTION", model.CategoryDataQuestion},
		{"Classification: GREETING", model.CategoryGreeting},
		{"chitchat", model.CategoryChitchat},
		{"UNCLEAR", model.CategoryUnclear},
		{"I have no idea", model.CategoryDataQuestion},
	}

	for _, tt := range tests {
		c := newTestClassifier(&fakeChatModel{reply: schema.AssistantMessage(tt.reply, nil)})
		got := c.Classify(context.Background(), "what are the top regions?", "")
		assert.Equal(t, tt.want, got, tt.reply)
	}
}

func TestClassifyOracleErrorFallsBackToHeuristic(t *testing.T) {
	c := newTestClassifier(&fakeChatModel{err: errors.New("boom")})

	assert.Equal(t, model.CategoryGreeting, c.Classify(context.Background(), "hello", ""))
	assert.Equal(t, model.CategoryDataQuestion, c.Classify(context.Background(), "what are the top 5 products?", ""))
}

func TestClassifyReportsUsage(t *testing.T) {
	reply := schema.AssistantMessage("DATA_QUESTION", nil)
	reply.ResponseMeta = &schema.ResponseMeta{
		Usage: &schema.TokenUsage{PromptTokens: 100, CompletionTokens: 5, TotalTokens: 105},
	}

	var gotModel string
	var gotTokens int
	c := NewClassifier(&fakeChatModel{reply: reply}, "gemini-2.5-flash", 5*time.Second,
		func(ctx context.Context, modelName string, usage *schema.TokenUsage) {
			gotModel = modelName
			gotTokens = usage.TotalTokens
		})

	c.Classify(context.Background(), "top regions by sales", "")

	assert.Equal(t, "gemini-2.5-flash", gotModel)
	assert.Equal(t, 105, gotTokens)
}

func TestHeuristicClassify(t *testing.T) {
	tests := []struct {
		name           string
		utterance      string
		contextSummary string
		want           model.QueryCategory
	}{
		{
			name:      "short greeting",
			utterance: "hi there",
			want:      model.CategoryGreeting,
		},
		{
			name:      "punctuated greeting",
			utterance: "Hey!",
			want:      model.CategoryGreeting,
		},
		{
			name:      "greeting phrase",
			utterance: "good morning",
			want:      model.CategoryGreeting,
		},
		{
			name:      "greeting token inside a word is a data question",
			utterance: "show this",
			want:      model.CategoryDataQuestion,
		},
		{
			name:      "another embedded token stays a data question",
			utterance: "which one",
			want:      model.CategoryDataQuestion,
		},
		{
			name:      "long greeting-like sentence is a data question",
			utterance: "hello, can you show me sales grouped by region?",
			want:      model.CategoryDataQuestion,
		},
		{
			name:           "greeting after analysis stays a data question",
			utterance:      "hey",
			contextSummary: "[DATA ANALYSIS SESSION - Previous messages involved data queries]",
			want:           model.CategoryDataQuestion,
		},
		{
			name:      "plain question",
			utterance: "top products",
			want:      model.CategoryDataQuestion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HeuristicClassify(tt.utterance, tt.contextSummary))
		})
	}
}
