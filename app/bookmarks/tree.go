package bookmarks

import (
	"strings"

	"github.com/lysyi3m/bookmark-comb/app/database"
)

// Tree is an owned, in-memory snapshot of the bookmark store, loaded once
// per operation. Walkers use an explicit stack and handle arbitrary depth.
type Tree struct {
	nodes    map[string]*database.Node
	children map[string][]*database.Node // key "" = top level
}

// BuildTree indexes a flat node list into a Tree snapshot.
func BuildTree(nodes []database.Node) *Tree {
	t := &Tree{
		nodes:    make(map[string]*database.Node, len(nodes)),
		children: make(map[string][]*database.Node),
	}

	for i := range nodes {
		node := &nodes[i]
		t.nodes[node.ID] = node
		t.children[parentKey(node.ParentID)] = append(t.children[parentKey(node.ParentID)], node)
	}

	return t
}

func parentKey(parentID *string) string {
	if parentID == nil {
		return ""
	}
	return *parentID
}

// Node returns the node with the given ID, or nil.
func (t *Tree) Node(id string) *database.Node {
	return t.nodes[id]
}

// Children returns the direct children of a folder. Pass "" for top level.
func (t *Tree) Children(parentID string) []*database.Node {
	return t.children[parentID]
}

// Roots returns the top-level nodes.
func (t *Tree) Roots() []*database.Node {
	return t.children[""]
}

// Path returns the folder titles from a top-level node down to the given
// node, inclusive.
func (t *Tree) Path(id string) []string {
	var segments []string
	for node := t.nodes[id]; node != nil; {
		segments = append([]string{node.Title}, segments...)
		if node.ParentID == nil {
			break
		}
		node = t.nodes[*node.ParentID]
	}
	return segments
}

// Bookmarks returns every URL-bearing node, skipping entire subtrees whose
// folder title is in excludeTitles.
func (t *Tree) Bookmarks(excludeTitles []string) []*database.Node {
	excluded := make(map[string]bool, len(excludeTitles))
	for _, title := range excludeTitles {
		excluded[strings.ToLower(title)] = true
	}

	var result []*database.Node
	stack := make([]*database.Node, 0, len(t.children[""]))
	stack = append(stack, t.children[""]...)

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.IsFolder() {
			if excluded[strings.ToLower(node.Title)] {
				continue
			}
			stack = append(stack, t.children[node.ID]...)
			continue
		}

		result = append(result, node)
	}

	return result
}

// HasBookmarkDescendant reports whether any node below the given folder,
// at any depth, carries a URL.
func (t *Tree) HasBookmarkDescendant(id string) bool {
	stack := append([]*database.Node(nil), t.children[id]...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !node.IsFolder() {
			return true
		}
		stack = append(stack, t.children[node.ID]...)
	}
	return false
}

// EmptyFolders returns the IDs of folders with no bookmark descendant,
// excluding protected IDs, in discovery order. Callers delete in reverse so
// the deepest folders go first.
func (t *Tree) EmptyFolders(protected map[string]bool) []string {
	var result []string

	stack := append([]*database.Node(nil), t.children[""]...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !node.IsFolder() {
			continue
		}
		if node.ParentID == nil {
			// Top-level containers are never pruned, only walked
			stack = append(stack, t.children[node.ID]...)
			continue
		}
		if protected[node.ID] {
			stack = append(stack, t.children[node.ID]...)
			continue
		}

		if !t.HasBookmarkDescendant(node.ID) {
			result = append(result, node.ID)
		}
		stack = append(stack, t.children[node.ID]...)
	}

	return result
}

// ExtractCategories returns the category paths currently present in the
// tree: a folder counts as a category when it directly contains at least
// one bookmark. Paths exclude the top-level container segment. Entire
// subtrees whose folder title is in excludeTitles are skipped, keeping
// backup and quarantine mirrors out of the category set.
func (t *Tree) ExtractCategories(excludeTitles []string) []string {
	excluded := make(map[string]bool, len(excludeTitles))
	for _, title := range excludeTitles {
		excluded[strings.ToLower(title)] = true
	}

	var result []string
	seen := make(map[string]bool)

	stack := append([]*database.Node(nil), t.children[""]...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !node.IsFolder() {
			continue
		}
		if excluded[strings.ToLower(node.Title)] {
			continue
		}
		stack = append(stack, t.children[node.ID]...)

		if node.ParentID == nil {
			continue
		}

		hasDirectBookmark := false
		for _, child := range t.children[node.ID] {
			if !child.IsFolder() {
				hasDirectBookmark = true
				break
			}
		}
		if !hasDirectBookmark {
			continue
		}

		segments := t.Path(node.ID)
		if len(segments) < 2 {
			continue
		}
		path := strings.Join(segments[1:], "/")
		if !seen[path] {
			seen[path] = true
			result = append(result, path)
		}
	}

	return result
}
