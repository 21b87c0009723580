package oracle

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/tabletalk/server/internal/assistant/model"
	logx "github.com/tabletalk/server/pkg/logger"
)

// ChatModelConfig holds the configuration for oracle chat model creation.
type ChatModelConfig struct {
	APIKey        string
	BaseURL       string
	ClassifierCfg *model.ClassifierModelConfig
	AnalyzerCfg   *model.AnalyzerModelConfig
}

// ChatModels holds the classifier and analyzer oracle models. Both are
// constructed once by the composition root and injected; no package-level
// client state exists, so tests can substitute fakes.
type ChatModels struct {
	Classifier          *gemini.ChatModel
	Analyzer            *gemini.ChatModel
	ClassifierModelName string
	AnalyzerModelName   string
}

// NewChatModels creates both oracle chat models with the given configuration.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	classifierModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ClassifierCfg.Model,
		Temperature: &config.ClassifierCfg.Temperature,
		MaxTokens:   &config.ClassifierCfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating classifier model")
		return nil, fmt.Errorf("error creating classifier model: %w", err)
	}

	analyzerModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.AnalyzerCfg.Model,
		Temperature: &config.AnalyzerCfg.Temperature,
		MaxTokens:   &config.AnalyzerCfg.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(1000)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating analyzer model")
		return nil, fmt.Errorf("error creating analyzer model: %w", err)
	}

	return &ChatModels{
		Classifier:          classifierModel,
		Analyzer:            analyzerModel,
		ClassifierModelName: config.ClassifierCfg.Model,
		AnalyzerModelName:   config.AnalyzerCfg.Model,
	}, nil
}
