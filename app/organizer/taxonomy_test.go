package organizer

import (
	"context"
	"fmt"
	"testing"

	"github.com/lysyi3m/bookmark-comb/app/llm"
)

func TestParsePredefinedCategories(t *testing.T) {
	text := "Technology/Programming\n\n  /Design/UI/  \n#not a comment format, still a name\n"

	categories := ParsePredefinedCategories(text)

	want := []string{"Technology/Programming", "Design/UI", "#not a comment format, still a name"}
	if len(categories) != len(want) {
		t.Fatalf("Expected %d categories, got %v", len(want), categories)
	}
	for i := range want {
		if categories[i] != want[i] {
			t.Errorf("Category %d: expected %q, got %q", i, want[i], categories[i])
		}
	}
}

func TestTaxonomyBuilder_Run(t *testing.T) {
	classifier := &fakeClassifier{
		proposeFunc: func(samples []llm.Sample) ([]string, error) {
			return []string{" Technology/Programming ", "Technology/Programming", "/Design/", ""}, nil
		},
	}
	builder := NewTaxonomyBuilder(classifier)

	samples := []llm.Sample{{Title: "Go", URL: "https://go.dev", Content: "go"}}
	categories, err := builder.Run(context.Background(), samples, 15, 2, "en")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []string{"Technology/Programming", "Design"}
	if len(categories) != len(want) {
		t.Fatalf("Expected deduped normalized categories %v, got %v", want, categories)
	}
	for i := range want {
		if categories[i] != want[i] {
			t.Errorf("Category %d: expected %q, got %q", i, want[i], categories[i])
		}
	}
}

func TestTaxonomyBuilder_Run_NoSamples(t *testing.T) {
	builder := NewTaxonomyBuilder(&fakeClassifier{})

	if _, err := builder.Run(context.Background(), nil, 15, 2, "en"); err == nil {
		t.Error("Expected an error with no samples")
	}
}

func TestTaxonomyBuilder_Run_NoUsableCategories(t *testing.T) {
	classifier := &fakeClassifier{
		proposeFunc: func(samples []llm.Sample) ([]string, error) {
			return []string{"", "  ", "///"}, nil
		},
	}
	builder := NewTaxonomyBuilder(classifier)

	samples := []llm.Sample{{Title: "Go", URL: "https://go.dev"}}
	if _, err := builder.Run(context.Background(), samples, 15, 2, "en"); err == nil {
		t.Error("Expected an error when every proposal is unusable")
	}
}

func TestTaxonomyBuilder_Run_ProviderError(t *testing.T) {
	classifier := &fakeClassifier{
		proposeFunc: func(samples []llm.Sample) ([]string, error) {
			return nil, fmt.Errorf("model unavailable")
		},
	}
	builder := NewTaxonomyBuilder(classifier)

	samples := []llm.Sample{{Title: "Go", URL: "https://go.dev"}}
	if _, err := builder.Run(context.Background(), samples, 15, 2, "en"); err == nil {
		t.Error("Expected provider error to surface")
	}
}
