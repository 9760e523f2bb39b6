package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/bookmark-comb/app/bookmarks"
	"github.com/lysyi3m/bookmark-comb/app/database"
)

// TreeOps bundles the tree-level consistency operations surrounding a run:
// backup, pruning, category extraction.
type TreeOps struct {
	nodes database.NodeRepository
}

func NewTreeOps(nodes database.NodeRepository) *TreeOps {
	return &TreeOps{nodes: nodes}
}

// EnsureTopLevelFolder finds a top-level folder by title, creating it when
// missing. An already-existing folder is success.
func (o *TreeOps) EnsureTopLevelFolder(title string) (string, error) {
	roots, err := o.nodes.GetChildren(nil)
	if err != nil {
		return "", fmt.Errorf("failed to list top-level nodes: %w", err)
	}

	for i := range roots {
		if roots[i].IsFolder() && roots[i].Title == title {
			return roots[i].ID, nil
		}
	}

	id, err := o.nodes.CreateNode(title, nil, "")
	if err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", title, err)
	}
	return id, nil
}

// Backup copies the entire current tree into the backup folder, merging
// into any pre-existing backup rather than overwriting it: folders merge
// recursively by matching child titles, bookmarks dedupe by URL. Top-level
// folders whose titles appear in skipTitles are not copied.
func (o *TreeOps) Backup(ctx context.Context, backupTitle string, skipTitles []string) (string, error) {
	backupID, err := o.EnsureTopLevelFolder(backupTitle)
	if err != nil {
		return "", err
	}

	nodes, err := o.nodes.GetTree()
	if err != nil {
		return "", fmt.Errorf("failed to load tree for backup: %w", err)
	}
	tree := bookmarks.BuildTree(nodes)

	skip := make(map[string]bool, len(skipTitles)+1)
	skip[strings.ToLower(backupTitle)] = true
	for _, title := range skipTitles {
		skip[strings.ToLower(title)] = true
	}

	copied := 0
	for _, root := range tree.Roots() {
		if root.ID == backupID || skip[strings.ToLower(root.Title)] {
			continue
		}
		n, err := o.mergeCopy(ctx, tree, root, backupID)
		if err != nil {
			return "", err
		}
		copied += n
	}

	slog.Info("Backup complete", "folder", backupTitle, "bookmarks_copied", copied)
	return backupID, nil
}

// mergeCopy copies node (and its subtree, for folders) into the target
// folder, reusing same-titled folders and skipping same-URL bookmarks.
// Returns the number of bookmarks copied.
func (o *TreeOps) mergeCopy(ctx context.Context, tree *bookmarks.Tree, node *database.Node, targetParentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	targetChildren, err := o.nodes.GetChildren(&targetParentID)
	if err != nil {
		return 0, fmt.Errorf("failed to list backup children: %w", err)
	}

	if !node.IsFolder() {
		for i := range targetChildren {
			if targetChildren[i].URL == node.URL {
				return 0, nil
			}
		}
		parent := targetParentID
		if _, err := o.nodes.CreateNode(node.Title, &parent, node.URL); err != nil {
			return 0, fmt.Errorf("failed to copy bookmark %q: %w", node.Title, err)
		}
		return 1, nil
	}

	targetID := ""
	for i := range targetChildren {
		if targetChildren[i].IsFolder() && targetChildren[i].Title == node.Title {
			targetID = targetChildren[i].ID
			break
		}
	}
	if targetID == "" {
		parent := targetParentID
		targetID, err = o.nodes.CreateNode(node.Title, &parent, "")
		if err != nil {
			return 0, fmt.Errorf("failed to copy folder %q: %w", node.Title, err)
		}
	}

	copied := 0
	for _, child := range tree.Children(node.ID) {
		n, err := o.mergeCopy(ctx, tree, child, targetID)
		if err != nil {
			return copied, err
		}
		copied += n
	}

	return copied, nil
}

// PruneEmptyFolders deletes folders with no bookmark descendant, deepest
// first, skipping protected IDs. Delete failures are logged and skipped,
// never fatal. Returns the number of folders deleted.
func (o *TreeOps) PruneEmptyFolders(protected map[string]bool) int {
	nodes, err := o.nodes.GetTree()
	if err != nil {
		slog.Error("Failed to load tree for pruning", "error", err)
		return 0
	}
	tree := bookmarks.BuildTree(nodes)

	empty := tree.EmptyFolders(protected)
	deleted := 0
	for i := len(empty) - 1; i >= 0; i-- {
		if err := o.nodes.RemoveSubtree(empty[i]); err != nil {
			slog.Warn("Failed to delete empty folder", "id", empty[i], "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		slog.Info("Empty folders pruned", "deleted", deleted)
	}
	return deleted
}

// ExtractCategories reads the category paths currently present in the live
// tree, so incremental classification can reuse them without rebuilding
// the taxonomy. Subtrees named in excludeTitles (the backup and failures
// folders) are left out.
func (o *TreeOps) ExtractCategories(excludeTitles []string) ([]string, error) {
	nodes, err := o.nodes.GetTree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree: %w", err)
	}

	return bookmarks.BuildTree(nodes).ExtractCategories(excludeTitles), nil
}
