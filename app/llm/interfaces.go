package llm

import (
	"context"
	"fmt"

	"github.com/lysyi3m/bookmark-comb/app/database"
	"github.com/lysyi3m/bookmark-comb/app/retry"
)

// Sample is one fetched page handed to the model when deriving a taxonomy.
type Sample struct {
	Title   string
	URL     string
	Content string
}

// Result is a single classification decision. Reason is free-text
// justification, not machine-checked.
type Result struct {
	Path   string
	Reason string
}

// Classifier is the language-model collaborator. Both operations return
// structured output; malformed model output is a hard failure, never
// silently defaulted.
type Classifier interface {
	ProposeCategories(ctx context.Context, samples []Sample, maxCount, maxDepth int, language string) ([]string, error)
	Classify(ctx context.Context, title, url, content string, existing []string, maxDepth int, language string) (*Result, error)
}

// NewClassifier selects an LLM provider from settings and wraps it with
// the retry policy.
func NewClassifier(settings *database.Settings) (Classifier, error) {
	var classifier Classifier

	switch settings.LLMProvider {
	case "", "anthropic":
		if settings.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic API key is not configured")
		}
		classifier = NewAnthropicClassifier(settings.AnthropicAPIKey, settings.Model)
	case "openai":
		if settings.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai API key is not configured")
		}
		classifier = NewOpenAIClassifier(settings.OpenAIAPIKey, settings.OpenAIBaseURL, settings.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", settings.LLMProvider)
	}

	return &retryingClassifier{classifier: classifier}, nil
}

type retryingClassifier struct {
	classifier Classifier
}

func (c *retryingClassifier) ProposeCategories(ctx context.Context, samples []Sample, maxCount, maxDepth int, language string) ([]string, error) {
	var categories []string
	err := retry.Do(ctx, "propose categories", func() error {
		var callErr error
		categories, callErr = c.classifier.ProposeCategories(ctx, samples, maxCount, maxDepth, language)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *retryingClassifier) Classify(ctx context.Context, title, url, content string, existing []string, maxDepth int, language string) (*Result, error) {
	var result *Result
	err := retry.Do(ctx, "classify bookmark", func() error {
		var callErr error
		result, callErr = c.classifier.Classify(ctx, title, url, content, existing, maxDepth, language)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
