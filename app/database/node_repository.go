package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

var _ NodeRepository = (*nodeRepository)(nil)

type nodeRepository struct {
	db *DB
}

// NewNodeRepository creates a new node repository backed by the nodes table.
func NewNodeRepository(db *DB) NodeRepository {
	return &nodeRepository{db: db}
}

func (r *nodeRepository) GetTree() ([]Node, error) {
	rows, err := r.db.Query(`
		SELECT id, parent_id, title, url, position
		FROM nodes
		ORDER BY parent_id, position, title
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

func (r *nodeRepository) GetChildren(parentID *string) ([]Node, error) {
	var rows *sql.Rows
	var err error

	if parentID == nil {
		rows, err = r.db.Query(`
			SELECT id, parent_id, title, url, position
			FROM nodes
			WHERE parent_id IS NULL
			ORDER BY position, title
		`)
	} else {
		rows, err = r.db.Query(`
			SELECT id, parent_id, title, url, position
			FROM nodes
			WHERE parent_id = ?
			ORDER BY position, title
		`, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

func (r *nodeRepository) GetNode(id string) (*Node, error) {
	var node Node
	err := r.db.QueryRow(`
		SELECT id, parent_id, title, url, position
		FROM nodes
		WHERE id = ?
	`, id).Scan(&node.ID, &node.ParentID, &node.Title, &node.URL, &node.Position)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	return &node, nil
}

func (r *nodeRepository) CreateNode(title string, parentID *string, url string) (string, error) {
	if parentID != nil {
		parent, err := r.GetNode(*parentID)
		if err != nil {
			return "", err
		}
		if parent == nil {
			return "", fmt.Errorf("parent node not found: %s", *parentID)
		}
		if !parent.IsFolder() {
			return "", fmt.Errorf("parent node is a bookmark, not a folder: %s", *parentID)
		}
	}

	id := uuid.NewString()
	position, err := r.nextPosition(parentID)
	if err != nil {
		return "", err
	}

	_, err = r.db.Exec(`
		INSERT INTO nodes (id, parent_id, title, url, position)
		VALUES (?, ?, ?, ?, ?)
	`, id, parentID, title, url, position)
	if err != nil {
		return "", fmt.Errorf("failed to create node: %w", err)
	}

	return id, nil
}

func (r *nodeRepository) MoveNode(id string, newParentID *string, position int) error {
	if newParentID != nil {
		parent, err := r.GetNode(*newParentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return fmt.Errorf("target folder not found: %s", *newParentID)
		}
		if !parent.IsFolder() {
			return fmt.Errorf("target node is a bookmark, not a folder: %s", *newParentID)
		}
	}

	if position < 0 {
		next, err := r.nextPosition(newParentID)
		if err != nil {
			return err
		}
		position = next
	}

	result, err := r.db.Exec(`
		UPDATE nodes
		SET parent_id = ?, position = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, newParentID, position, id)
	if err != nil {
		return fmt.Errorf("failed to move node: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check move result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("node not found: %s", id)
	}

	return nil
}

func (r *nodeRepository) RemoveSubtree(id string) error {
	// parent_id has ON DELETE CASCADE, so descendants go with the root
	result, err := r.db.Exec(`DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove subtree: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check remove result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("node not found: %s", id)
	}

	return nil
}

func (r *nodeRepository) Search(query string) ([]Node, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.Query(`
		SELECT id, parent_id, title, url, position
		FROM nodes
		WHERE title LIKE ? OR url LIKE ?
		ORDER BY title
	`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search nodes: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

func (r *nodeRepository) nextPosition(parentID *string) (int, error) {
	var max sql.NullInt64
	var err error

	if parentID == nil {
		err = r.db.QueryRow(`SELECT MAX(position) FROM nodes WHERE parent_id IS NULL`).Scan(&max)
	} else {
		err = r.db.QueryRow(`SELECT MAX(position) FROM nodes WHERE parent_id = ?`, *parentID).Scan(&max)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to determine position: %w", err)
	}

	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}

func scanNodes(rows *sql.Rows) ([]Node, error) {
	var nodes []Node
	for rows.Next() {
		var node Node
		if err := rows.Scan(&node.ID, &node.ParentID, &node.Title, &node.URL, &node.Position); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nodes: %w", err)
	}

	return nodes, nil
}
