// Package sqlite stores diagrams in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meikuraledutech/flowboard"
)

// Store implements flowboard.Store on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. ":memory:" works for tests.
// WAL mode and foreign keys are enabled.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("flowboard: open sqlite db: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("flowboard: ping sqlite db: %w", err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA foreign_keys=ON;"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("flowboard: %s: %w", pragma, err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS flow_diagrams (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS flow_nodes (
	diagram_id TEXT NOT NULL REFERENCES flow_diagrams(id) ON DELETE CASCADE,
	id         TEXT NOT NULL,
	ord        INTEGER NOT NULL,
	type       TEXT NOT NULL,
	x          REAL NOT NULL,
	y          REAL NOT NULL,
	data       TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (diagram_id, id)
);

CREATE TABLE IF NOT EXISTS flow_edges (
	diagram_id TEXT NOT NULL,
	id         TEXT NOT NULL,
	ord        INTEGER NOT NULL,
	source     TEXT NOT NULL,
	target     TEXT NOT NULL,
	data       TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (diagram_id, id),
	FOREIGN KEY (diagram_id, source) REFERENCES flow_nodes(diagram_id, id) ON DELETE CASCADE,
	FOREIGN KEY (diagram_id, target) REFERENCES flow_nodes(diagram_id, id) ON DELETE CASCADE
);
`

// CreateSchema creates the tables if they don't exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// DropSchema drops every flowboard table.
func (s *Store) DropSchema(ctx context.Context) error {
	for _, t := range []string{"flow_edges", "flow_nodes", "flow_diagrams"} {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
			return err
		}
	}
	return nil
}

// SaveDiagram replaces the diagram stored under d.ID in one transaction.
func (s *Store) SaveDiagram(ctx context.Context, d *flowboard.Diagram) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("flowboard: begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO flow_diagrams (id, name, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		d.ID, d.Name, now,
	); err != nil {
		return fmt.Errorf("flowboard: upsert diagram: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM flow_edges WHERE diagram_id = ?`, d.ID); err != nil {
		return fmt.Errorf("flowboard: delete edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM flow_nodes WHERE diagram_id = ?`, d.ID); err != nil {
		return fmt.Errorf("flowboard: delete nodes: %w", err)
	}

	for i, n := range d.Nodes {
		data, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("flowboard: encode node %s: %w", n.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO flow_nodes (diagram_id, id, ord, type, x, y, data) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.ID, n.ID, i, string(n.Type), n.Position.X, n.Position.Y, string(data),
		); err != nil {
			return fmt.Errorf("flowboard: insert node %s: %w", n.ID, err)
		}
	}
	for i, e := range d.Edges {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("flowboard: encode edge %s: %w", e.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO flow_edges (diagram_id, id, ord, source, target, data) VALUES (?, ?, ?, ?, ?, ?)`,
			d.ID, e.ID, i, e.Source, e.Target, string(data),
		); err != nil {
			return fmt.Errorf("flowboard: insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("flowboard: commit: %w", err)
	}
	d.UpdatedAt = now
	return nil
}

// GetDiagram returns nil, nil if id is not stored.
func (s *Store) GetDiagram(ctx context.Context, id string) (*flowboard.Diagram, error) {
	d := &flowboard.Diagram{ID: id, Nodes: []flowboard.Node{}, Edges: []flowboard.Edge{}}
	err := s.db.QueryRowContext(ctx,
		`SELECT name, updated_at FROM flow_diagrams WHERE id = ?`, id,
	).Scan(&d.Name, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("flowboard: get diagram: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, x, y, data FROM flow_nodes WHERE diagram_id = ? ORDER BY ord`, id)
	if err != nil {
		return nil, fmt.Errorf("flowboard: query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n flowboard.Node
		var typ, data string
		if err := rows.Scan(&n.ID, &typ, &n.Position.X, &n.Position.Y, &data); err != nil {
			return nil, fmt.Errorf("flowboard: scan node: %w", err)
		}
		n.Type = flowboard.NodeType(typ)
		if err := json.Unmarshal([]byte(data), &n.Data); err != nil {
			return nil, fmt.Errorf("flowboard: decode node %s: %w", n.ID, err)
		}
		d.Nodes = append(d.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowboard: rows nodes: %w", err)
	}

	edgeRows, err := s.db.QueryContext(ctx,
		`SELECT data FROM flow_edges WHERE diagram_id = ? ORDER BY ord`, id)
	if err != nil {
		return nil, fmt.Errorf("flowboard: query edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var data string
		if err := edgeRows.Scan(&data); err != nil {
			return nil, fmt.Errorf("flowboard: scan edge: %w", err)
		}
		var e flowboard.Edge
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("flowboard: decode edge: %w", err)
		}
		d.Edges = append(d.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("flowboard: rows edges: %w", err)
	}
	return d, nil
}

// DeleteDiagram removes id and, through the foreign keys, its entities.
func (s *Store) DeleteDiagram(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM flow_diagrams WHERE id = ?`, id); err != nil {
		return fmt.Errorf("flowboard: delete diagram: %w", err)
	}
	return nil
}

// ListDiagrams returns one summary per diagram ordered by id.
func (s *Store) ListDiagrams(ctx context.Context) ([]flowboard.DiagramSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.updated_at,
		       (SELECT COUNT(*) FROM flow_nodes n WHERE n.diagram_id = d.id),
		       (SELECT COUNT(*) FROM flow_edges e WHERE e.diagram_id = d.id)
		FROM flow_diagrams d ORDER BY d.id`)
	if err != nil {
		return nil, fmt.Errorf("flowboard: list diagrams: %w", err)
	}
	defer rows.Close()

	out := []flowboard.DiagramSummary{}
	for rows.Next() {
		var sum flowboard.DiagramSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.UpdatedAt, &sum.NodeCount, &sum.EdgeCount); err != nil {
			return nil, fmt.Errorf("flowboard: scan diagram: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
