package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS flow_diagrams (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS flow_nodes (
    diagram_id TEXT NOT NULL REFERENCES flow_diagrams(id) ON DELETE CASCADE,
    id         TEXT NOT NULL,
    ord        INTEGER NOT NULL,
    type       TEXT NOT NULL,
    x          DOUBLE PRECISION NOT NULL,
    y          DOUBLE PRECISION NOT NULL,
    data       JSONB NOT NULL DEFAULT '{}',
    PRIMARY KEY (diagram_id, id)
);

CREATE TABLE IF NOT EXISTS flow_edges (
    diagram_id TEXT NOT NULL,
    id         TEXT NOT NULL,
    ord        INTEGER NOT NULL,
    source     TEXT NOT NULL,
    target     TEXT NOT NULL,
    data       JSONB NOT NULL DEFAULT '{}',
    PRIMARY KEY (diagram_id, id),
    FOREIGN KEY (diagram_id, source) REFERENCES flow_nodes(diagram_id, id) ON DELETE CASCADE,
    FOREIGN KEY (diagram_id, target) REFERENCES flow_nodes(diagram_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_flow_edges_source ON flow_edges(diagram_id, source);
CREATE INDEX IF NOT EXISTS idx_flow_edges_target ON flow_edges(diagram_id, target);
`

// CreateSchema creates the flow_diagrams, flow_nodes and flow_edges tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops all flowboard tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS flow_edges, flow_nodes, flow_diagrams CASCADE;`)
	return err
}
