package organizer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/bookmark-comb/app/content"
	"github.com/lysyi3m/bookmark-comb/app/database"
	"github.com/lysyi3m/bookmark-comb/app/llm"
)

// Classification is the outcome of classifying one bookmark: the chosen
// category path and the folder it resolves to.
type Classification struct {
	Path     string
	Reason   string
	FolderID string
}

// ItemClassifier classifies a single bookmark: content fetch, rule check,
// LLM fallback, folder resolution. Fetch, model, and folder errors all
// surface as one classification failure for the item.
type ItemClassifier struct {
	nodes      database.NodeRepository
	fetcher    content.Fetcher
	classifier llm.Classifier
	matcher    *RuleMatcher
	maxDepth   int
	language   string
}

func NewItemClassifier(nodes database.NodeRepository, fetcher content.Fetcher,
	classifier llm.Classifier, matcher *RuleMatcher, maxDepth int, language string) *ItemClassifier {
	return &ItemClassifier{
		nodes:      nodes,
		fetcher:    fetcher,
		classifier: classifier,
		matcher:    matcher,
		maxDepth:   maxDepth,
		language:   language,
	}
}

// Classify decides a category path for the bookmark without touching the
// tree. Rules are checked first; the model is only consulted when no rule
// matches.
func (c *ItemClassifier) Classify(ctx context.Context, bookmark *database.Node, existing []string) (*llm.Result, error) {
	if bookmark.URL == "" {
		return nil, fmt.Errorf("node %s has no URL", bookmark.ID)
	}

	page, err := c.fetcher.Fetch(ctx, bookmark.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content for %s: %w", bookmark.URL, err)
	}

	if category, matched := c.matcher.Run(bookmark, page.Content); matched {
		slog.Debug("Bookmark matched custom rule", "url", bookmark.URL, "category", category)
		return &llm.Result{Path: category, Reason: "matched custom rule"}, nil
	}

	result, err := c.classifier.Classify(ctx, bookmark.Title, bookmark.URL, page.Content, existing, c.maxDepth, c.language)
	if err != nil {
		return nil, fmt.Errorf("failed to classify %s: %w", bookmark.URL, err)
	}

	return result, nil
}

// Run classifies the bookmark and resolves its category path to a concrete
// folder under rootID.
func (c *ItemClassifier) Run(ctx context.Context, bookmark *database.Node, existing []string, rootID string) (*Classification, error) {
	result, err := c.Classify(ctx, bookmark, existing)
	if err != nil {
		return nil, err
	}

	folderID, err := ResolveFolder(c.nodes, rootID, result.Path)
	if err != nil {
		return nil, err
	}

	return &Classification{
		Path:     result.Path,
		Reason:   result.Reason,
		FolderID: folderID,
	}, nil
}

// ResolveFolder walks a category path under rootID, creating any missing
// segment folders. Re-resolving an existing path reuses the same folders.
// Segment titles are matched exactly.
func ResolveFolder(nodes database.NodeRepository, rootID string, path string) (string, error) {
	chain, err := ResolveFolderChain(nodes, rootID, path)
	if err != nil {
		return "", err
	}
	return chain[len(chain)-1], nil
}

// ResolveFolderChain is ResolveFolder returning the folder ID of every
// path segment, outermost first.
func ResolveFolderChain(nodes database.NodeRepository, rootID string, path string) ([]string, error) {
	segments := SplitCategoryPath(path)
	if len(segments) == 0 {
		return nil, fmt.Errorf("empty category path")
	}

	chain := make([]string, 0, len(segments))
	parentID := rootID
	for _, segment := range segments {
		children, err := nodes.GetChildren(&parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to list children of %s: %w", parentID, err)
		}

		found := ""
		for i := range children {
			if children[i].IsFolder() && children[i].Title == segment {
				found = children[i].ID
				break
			}
		}

		if found == "" {
			parent := parentID
			found, err = nodes.CreateNode(segment, &parent, "")
			if err != nil {
				return nil, fmt.Errorf("failed to create folder %q: %w", segment, err)
			}
		}

		chain = append(chain, found)
		parentID = found
	}

	return chain, nil
}
