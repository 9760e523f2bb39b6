package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-haiku-4-5-20251001"

// AnthropicClassifier talks to the Anthropic Messages API.
type AnthropicClassifier struct {
	client anthropic.Client
	model  string
}

func NewAnthropicClassifier(apiKey, model string) *AnthropicClassifier {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicClassifier{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *AnthropicClassifier) ProposeCategories(ctx context.Context, samples []Sample, maxCount, maxDepth int, language string) ([]string, error) {
	systemPrompt, userPrompt := buildProposePrompts(samples, maxCount, maxDepth, language)

	responseText, err := c.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	return parseCategoriesResponse(responseText)
}

func (c *AnthropicClassifier) Classify(ctx context.Context, title, url, content string, existing []string, maxDepth int, language string) (*Result, error) {
	systemPrompt, userPrompt := buildClassifyPrompts(title, url, content, existing, maxDepth, language)

	responseText, err := c.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	return parseClassifyResponse(responseText)
}

func (c *AnthropicClassifier) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("no text content in anthropic response")
}
