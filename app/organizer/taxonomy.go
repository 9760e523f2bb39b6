package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/bookmark-comb/app/llm"
)

// ParsePredefinedCategories parses a user-supplied category list: one path
// per line, trimmed, empty lines dropped.
func ParsePredefinedCategories(text string) []string {
	var categories []string
	for _, line := range strings.Split(text, "\n") {
		path := NormalizeCategoryPath(line)
		if path != "" {
			categories = append(categories, path)
		}
	}
	return categories
}

// TaxonomyBuilder derives a category set from a content sample via the
// language model. Max count and depth are requested in the prompt but not
// programmatically enforced on the response.
type TaxonomyBuilder struct {
	classifier llm.Classifier
}

func NewTaxonomyBuilder(classifier llm.Classifier) *TaxonomyBuilder {
	return &TaxonomyBuilder{classifier: classifier}
}

func (b *TaxonomyBuilder) Run(ctx context.Context, samples []llm.Sample, maxCount, maxDepth int, language string) ([]string, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no content samples available to derive categories from")
	}

	proposed, err := b.classifier.ProposeCategories(ctx, samples, maxCount, maxDepth, language)
	if err != nil {
		return nil, fmt.Errorf("failed to propose categories: %w", err)
	}

	var categories []string
	seen := make(map[string]bool)
	for _, category := range proposed {
		path := NormalizeCategoryPath(category)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		categories = append(categories, path)
	}

	if len(categories) == 0 {
		return nil, fmt.Errorf("model proposed no usable categories")
	}

	slog.Info("Taxonomy derived", "categories", len(categories), "samples", len(samples))
	return categories, nil
}
