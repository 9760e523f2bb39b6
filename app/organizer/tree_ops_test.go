package organizer

import (
	"context"
	"testing"
)

func TestTreeOps_EnsureTopLevelFolder_Idempotent(t *testing.T) {
	nodes := newFakeNodeRepo()
	ops := NewTreeOps(nodes)

	first, err := ops.EnsureTopLevelFolder("Inbox")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := ops.EnsureTopLevelFolder("Inbox")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if first != second {
		t.Errorf("Expected the same folder on re-ensure, got %s and %s", first, second)
	}
}

func TestTreeOps_Backup_MergesAndDedupes(t *testing.T) {
	nodes := newFakeNodeRepo()
	nodes.add("bar", nil, "Bookmarks Bar", "")
	nodes.add("b1", strPtr("bar"), "Go", "https://go.dev")
	ops := NewTreeOps(nodes)

	backupID, err := ops.Backup(context.Background(), "Backup", nil)
	if err != nil {
		t.Fatalf("First backup failed: %v", err)
	}

	// A second backup must not duplicate folders or bookmarks
	if _, err := ops.Backup(context.Background(), "Backup", nil); err != nil {
		t.Fatalf("Second backup failed: %v", err)
	}

	backupChildren, _ := nodes.GetChildren(&backupID)
	if len(backupChildren) != 1 {
		t.Fatalf("Expected 1 folder inside backup, got %d", len(backupChildren))
	}
	barCopy := backupChildren[0]
	if barCopy.Title != "Bookmarks Bar" || !barCopy.IsFolder() {
		t.Fatalf("Unexpected backup child: %+v", barCopy)
	}

	copies, _ := nodes.GetChildren(&barCopy.ID)
	if len(copies) != 1 {
		t.Errorf("Expected bookmark deduped by URL inside backup, got %d copies", len(copies))
	}
}

func TestTreeOps_Backup_SkipsTitles(t *testing.T) {
	nodes := newFakeNodeRepo()
	nodes.add("bar", nil, "Bookmarks Bar", "")
	nodes.add("b1", strPtr("bar"), "Go", "https://go.dev")
	nodes.add("failures", nil, "Failures", "")
	nodes.add("b2", strPtr("failures"), "Broken", "https://broken.example.com")
	ops := NewTreeOps(nodes)

	backupID, err := ops.Backup(context.Background(), "Backup", []string{"Failures"})
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	backupChildren, _ := nodes.GetChildren(&backupID)
	for _, child := range backupChildren {
		if child.Title == "Failures" {
			t.Error("Skipped folder must not be copied into backup")
		}
	}
}

func TestTreeOps_PruneEmptyFolders(t *testing.T) {
	nodes := newFakeNodeRepo()
	nodes.add("bar", nil, "Bookmarks Bar", "")
	nodes.add("keep", strPtr("bar"), "Keep", "")
	nodes.add("b1", strPtr("keep"), "Go", "https://go.dev")
	nodes.add("stale", strPtr("bar"), "Stale", "")
	nodes.add("deeper", strPtr("stale"), "Deeper", "")
	nodes.add("shield", strPtr("bar"), "Shielded", "")
	ops := NewTreeOps(nodes)

	deleted := ops.PruneEmptyFolders(map[string]bool{"shield": true})

	if deleted == 0 {
		t.Fatal("Expected empty folders to be deleted")
	}
	if node, _ := nodes.GetNode("stale"); node != nil {
		t.Error("Expected 'Stale' to be pruned")
	}
	if node, _ := nodes.GetNode("deeper"); node != nil {
		t.Error("Expected nested empty folder to be pruned")
	}
	if node, _ := nodes.GetNode("keep"); node == nil {
		t.Error("Folder with a bookmark must survive pruning")
	}
	if node, _ := nodes.GetNode("shield"); node == nil {
		t.Error("Protected folder must survive pruning")
	}
	if node, _ := nodes.GetNode("bar"); node == nil {
		t.Error("Top-level container must survive pruning")
	}
}

func TestResolveFolder_CreatesAndReuses(t *testing.T) {
	nodes := newFakeNodeRepo()
	nodes.add("bar", nil, "Bookmarks Bar", "")

	first, err := ResolveFolder(nodes, "bar", "Technology/Programming")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := ResolveFolder(nodes, "bar", "Technology/Programming")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if first != second {
		t.Errorf("Re-resolving the same path must reuse folders, got %s and %s", first, second)
	}

	barID := "bar"
	children, _ := nodes.GetChildren(&barID)
	if len(children) != 1 || children[0].Title != "Technology" {
		t.Fatalf("Expected single 'Technology' folder under root, got %v", children)
	}
}

func TestResolveFolderChain(t *testing.T) {
	nodes := newFakeNodeRepo()
	nodes.add("bar", nil, "Bookmarks Bar", "")

	chain, err := ResolveFolderChain(nodes, "bar", "Technology/Programming")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(chain) != 2 {
		t.Fatalf("Expected 2 segment folders, got %d", len(chain))
	}

	tech, _ := nodes.GetNode(chain[0])
	prog, _ := nodes.GetNode(chain[1])
	if tech == nil || tech.Title != "Technology" {
		t.Errorf("Unexpected first segment: %+v", tech)
	}
	if prog == nil || prog.Title != "Programming" {
		t.Errorf("Unexpected second segment: %+v", prog)
	}
	if prog.ParentID == nil || *prog.ParentID != tech.ID {
		t.Error("Expected second segment nested under the first")
	}
}

func TestResolveFolder_EmptyPath(t *testing.T) {
	nodes := newFakeNodeRepo()
	nodes.add("bar", nil, "Bookmarks Bar", "")

	if _, err := ResolveFolder(nodes, "bar", "  /  "); err == nil {
		t.Error("Expected an error for an empty category path")
	}
}
