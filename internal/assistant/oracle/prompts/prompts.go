// Package prompts renders the oracle system prompts through the Eino prompt
// component so prompt callbacks fire for observability.
package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/classifier_prompt.txt
var classifierSystemPrompt string

//go:embed template/analyzer_prompt.txt
var analyzerSystemPrompt string

// RenderClassifierSystem returns the classifier oracle's system prompt.
func RenderClassifierSystem(ctx context.Context) (string, error) {
	return renderStatic(ctx, classifierSystemPrompt)
}

// RenderAnalyzerSystem returns the intent oracle's system prompt.
func RenderAnalyzerSystem(ctx context.Context) (string, error) {
	return renderStatic(ctx, analyzerSystemPrompt)
}

// renderStatic wraps a fixed prompt via a messages placeholder so the Eino
// prompt component emits callbacks without interfering with JSON braces in
// the template.
func renderStatic(ctx context.Context, content string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}
