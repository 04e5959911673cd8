package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/flowboard"
)

// SaveDiagram saves a full diagram (nodes + edges) in one transaction.
// Whatever was stored under d.ID before is replaced.
func (s *PGStore) SaveDiagram(ctx context.Context, d *flowboard.Diagram) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("flowboard: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var updated time.Time
	err = tx.QueryRow(ctx,
		`INSERT INTO flow_diagrams (id, name, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = EXCLUDED.updated_at
		 RETURNING updated_at`,
		d.ID, d.Name,
	).Scan(&updated)
	if err != nil {
		return fmt.Errorf("flowboard: upsert diagram: %w", err)
	}

	// Edges go first; the node delete would cascade them anyway.
	if _, err := tx.Exec(ctx, `DELETE FROM flow_edges WHERE diagram_id = $1`, d.ID); err != nil {
		return fmt.Errorf("flowboard: delete edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM flow_nodes WHERE diagram_id = $1`, d.ID); err != nil {
		return fmt.Errorf("flowboard: delete nodes: %w", err)
	}

	batch := &pgx.Batch{}
	for i, n := range d.Nodes {
		data, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("flowboard: encode node %s: %w", n.ID, err)
		}
		batch.Queue(
			`INSERT INTO flow_nodes (diagram_id, id, ord, type, x, y, data) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			d.ID, n.ID, i, string(n.Type), n.Position.X, n.Position.Y, data,
		)
	}
	for i, e := range d.Edges {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("flowboard: encode edge %s: %w", e.ID, err)
		}
		batch.Queue(
			`INSERT INTO flow_edges (diagram_id, id, ord, source, target, data) VALUES ($1, $2, $3, $4, $5, $6)`,
			d.ID, e.ID, i, e.Source, e.Target, data,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("flowboard: insert entities: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("flowboard: commit: %w", err)
	}
	d.UpdatedAt = updated
	return nil
}

// GetDiagram retrieves a full diagram by its ID.
// Returns nil, nil if the diagram doesn't exist.
func (s *PGStore) GetDiagram(ctx context.Context, id string) (*flowboard.Diagram, error) {
	d := &flowboard.Diagram{ID: id, Nodes: []flowboard.Node{}, Edges: []flowboard.Edge{}}

	err := s.db.QueryRow(ctx,
		`SELECT name, updated_at FROM flow_diagrams WHERE id = $1`, id,
	).Scan(&d.Name, &d.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("flowboard: get diagram: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, type, x, y, data FROM flow_nodes WHERE diagram_id = $1 ORDER BY ord`, id)
	if err != nil {
		return nil, fmt.Errorf("flowboard: query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n flowboard.Node
		var typ string
		var data []byte
		if err := rows.Scan(&n.ID, &typ, &n.Position.X, &n.Position.Y, &data); err != nil {
			return nil, fmt.Errorf("flowboard: scan node: %w", err)
		}
		n.Type = flowboard.NodeType(typ)
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("flowboard: decode node %s: %w", n.ID, err)
		}
		d.Nodes = append(d.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowboard: rows nodes: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT data FROM flow_edges WHERE diagram_id = $1 ORDER BY ord`, id)
	if err != nil {
		return nil, fmt.Errorf("flowboard: query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("flowboard: scan edge: %w", err)
		}
		var e flowboard.Edge
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("flowboard: decode edge: %w", err)
		}
		d.Edges = append(d.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowboard: rows edges: %w", err)
	}

	return d, nil
}

// DeleteDiagram removes a diagram with all its nodes and edges.
// No error if the id doesn't exist.
func (s *PGStore) DeleteDiagram(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM flow_diagrams WHERE id = $1`, id); err != nil {
		return fmt.Errorf("flowboard: delete diagram: %w", err)
	}
	return nil
}

// ListDiagrams returns one summary per stored diagram, ordered by id.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListDiagrams(ctx context.Context) ([]flowboard.DiagramSummary, error) {
	rows, err := s.db.Query(ctx, `
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowboard: rows diagrams: %w", err)
	}
	return out, nil
}
