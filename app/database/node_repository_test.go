package database

import (
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestNodeRepository_CreateAndGet(t *testing.T) {
	repo := NewNodeRepository(newTestDB(t))

	folderID, err := repo.CreateNode("Bookmarks Bar", nil, "")
	if err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}

	bookmarkID, err := repo.CreateNode("Go", &folderID, "https://go.dev")
	if err != nil {
		t.Fatalf("Failed to create bookmark: %v", err)
	}

	node, err := repo.GetNode(bookmarkID)
	if err != nil {
		t.Fatalf("Failed to get node: %v", err)
	}
	if node == nil {
		t.Fatal("Expected node, got nil")
	}
	if node.Title != "Go" || node.URL != "https://go.dev" {
		t.Errorf("Unexpected node: %+v", node)
	}
	if node.ParentID == nil || *node.ParentID != folderID {
		t.Errorf("Expected parent %s, got %v", folderID, node.ParentID)
	}
	if node.IsFolder() {
		t.Error("Bookmark must not report as folder")
	}

	missing, err := repo.GetNode("nope")
	if err != nil {
		t.Fatalf("Unexpected error for missing node: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing node")
	}
}

func TestNodeRepository_CreateNode_ValidatesParent(t *testing.T) {
	repo := NewNodeRepository(newTestDB(t))

	folderID, _ := repo.CreateNode("Bookmarks Bar", nil, "")
	bookmarkID, _ := repo.CreateNode("Go", &folderID, "https://go.dev")

	if _, err := repo.CreateNode("child", &bookmarkID, ""); err == nil {
		t.Error("Expected an error when the parent is a bookmark")
	}

	missing := "missing"
	if _, err := repo.CreateNode("child", &missing, ""); err == nil {
		t.Error("Expected an error when the parent does not exist")
	}
}

func TestNodeRepository_GetChildren_Ordering(t *testing.T) {
	repo := NewNodeRepository(newTestDB(t))

	folderID, _ := repo.CreateNode("Bookmarks Bar", nil, "")
	repo.CreateNode("first", &folderID, "https://example.com/1")
	repo.CreateNode("second", &folderID, "https://example.com/2")
	repo.CreateNode("third", &folderID, "https://example.com/3")

	children, err := repo.GetChildren(&folderID)
	if err != nil {
		t.Fatalf("Failed to get children: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("Expected 3 children, got %d", len(children))
	}

	want := []string{"first", "second", "third"}
	for i := range want {
		if children[i].Title != want[i] {
			t.Errorf("Child %d: expected %q, got %q", i, want[i], children[i].Title)
		}
		if children[i].Position != i {
			t.Errorf("Child %d: expected position %d, got %d", i, i, children[i].Position)
		}
	}
}

func TestNodeRepository_MoveNode(t *testing.T) {
	repo := NewNodeRepository(newTestDB(t))

	sourceID, _ := repo.CreateNode("Source", nil, "")
	targetID, _ := repo.CreateNode("Target", nil, "")
	bookmarkID, _ := repo.CreateNode("Go", &sourceID, "https://go.dev")

	if err := repo.MoveNode(bookmarkID, &targetID, -1); err != nil {
		t.Fatalf("Failed to move node: %v", err)
	}

	moved, _ := repo.GetNode(bookmarkID)
	if moved.ParentID == nil || *moved.ParentID != targetID {
		t.Errorf("Expected bookmark under target, got parent %v", moved.ParentID)
	}

	if err := repo.MoveNode(bookmarkID, &bookmarkID, -1); err == nil {
		t.Error("Expected an error when the move target is a bookmark")
	}
	if err := repo.MoveNode("missing", &targetID, -1); err == nil {
		t.Error("Expected an error when the moved node does not exist")
	}
}

func TestNodeRepository_RemoveSubtree_Cascades(t *testing.T) {
	repo := NewNodeRepository(newTestDB(t))

	rootID, _ := repo.CreateNode("Root", nil, "")
	childID, _ := repo.CreateNode("Child", &rootID, "")
	grandchildID, _ := repo.CreateNode("Go", &childID, "https://go.dev")

	if err := repo.RemoveSubtree(rootID); err != nil {
		t.Fatalf("Failed to remove subtree: %v", err)
	}

	for _, id := range []string{rootID, childID, grandchildID} {
		if node, _ := repo.GetNode(id); node != nil {
			t.Errorf("Expected node %s to be cascade-deleted", id)
		}
	}

	if err := repo.RemoveSubtree("missing"); err == nil {
		t.Error("Expected an error for a missing node")
	}
}

func TestNodeRepository_Search(t *testing.T) {
	repo := NewNodeRepository(newTestDB(t))

	folderID, _ := repo.CreateNode("Bookmarks Bar", nil, "")
	repo.CreateNode("Go Blog", &folderID, "https://go.dev/blog")
	repo.CreateNode("Dribbble", &folderID, "https://dribbble.com")

	byTitle, err := repo.Search("Blog")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(byTitle) != 1 || byTitle[0].Title != "Go Blog" {
		t.Errorf("Expected title match, got %v", byTitle)
	}

	byURL, err := repo.Search("dribbble.com")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(byURL) != 1 || byURL[0].Title != "Dribbble" {
		t.Errorf("Expected URL match, got %v", byURL)
	}
}
