package bookmarks

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/lysyi3m/bookmark-comb/app/database"
)

// ImportStats summarizes an HTML import.
type ImportStats struct {
	Folders   int
	Bookmarks int
}

// ImportHTML parses a Netscape bookmark HTML export and creates the parsed
// folders and bookmarks through the node repository, rooted at rootID
// (nil = top level). Bookmarks without an href are skipped.
func ImportHTML(r io.Reader, repo database.NodeRepository, rootID *string) (*ImportStats, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bookmark HTML: %w", err)
	}

	stats := &ImportStats{}

	// Stack of folder IDs tracking the current position in the hierarchy;
	// an H3 defines a folder that becomes current on the following DL.
	folderStack := []*string{rootID}
	var pendingFolderID *string
	var importErr error

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if importErr != nil {
			return
		}

		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				name := textContent(n)
				if name == "" {
					return
				}
				parentID := folderStack[len(folderStack)-1]
				id, err := repo.CreateNode(name, parentID, "")
				if err != nil {
					importErr = fmt.Errorf("failed to create folder %q: %w", name, err)
					return
				}
				stats.Folders++
				pendingFolderID = &id
				return

			case "a":
				href := attrValue(n, "href")
				if href == "" {
					return
				}
				title := textContent(n)
				if title == "" {
					title = href
				}
				parentID := folderStack[len(folderStack)-1]
				if _, err := repo.CreateNode(title, parentID, href); err != nil {
					importErr = fmt.Errorf("failed to create bookmark %q: %w", title, err)
					return
				}
				stats.Bookmarks++
				return

			case "dl":
				pushed := false
				if pendingFolderID != nil {
					folderStack = append(folderStack, pendingFolderID)
					pendingFolderID = nil
					pushed = true
				}
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}
				if pushed {
					folderStack = folderStack[:len(folderStack)-1]
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	if importErr != nil {
		return nil, importErr
	}

	slog.Info("Bookmark HTML imported", "folders", stats.Folders, "bookmarks", stats.Bookmarks)
	return stats, nil
}

func textContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}
