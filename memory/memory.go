// Package memory keeps diagrams in process memory. Nothing survives a
// restart, which matches the editor's default behaviour.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/meikuraledutech/flowboard"
)

// MemStore implements flowboard.Store with a map.
type MemStore struct {
	mu       sync.RWMutex
	diagrams map[string]*flowboard.Diagram
	now      func() time.Time
}

// New creates an empty MemStore.
func New() *MemStore {
	return &MemStore{diagrams: make(map[string]*flowboard.Diagram), now: time.Now}
}

// CreateSchema is a no-op.
func (s *MemStore) CreateSchema(ctx context.Context) error { return nil }

// DropSchema forgets every diagram.
func (s *MemStore) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.diagrams)
	return nil
}

// SaveDiagram stores a copy of d, replacing whatever was under d.ID.
func (s *MemStore) SaveDiagram(ctx context.Context, d *flowboard.Diagram) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := copyDiagram(d)
	cp.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagrams[d.ID] = cp
	d.UpdatedAt = cp.UpdatedAt
	return nil
}

// GetDiagram returns a copy of the stored diagram, or nil, nil.
func (s *MemStore) GetDiagram(ctx context.Context, id string) (*flowboard.Diagram, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.diagrams[id]
	if !ok {
		return nil, nil
	}
	return copyDiagram(d), nil
}

// DeleteDiagram removes id. No error if it doesn't exist.
func (s *MemStore) DeleteDiagram(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.diagrams, id)
	return nil
}

// ListDiagrams returns summaries ordered by id.
func (s *MemStore) ListDiagrams(ctx context.Context) ([]flowboard.DiagramSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]flowboard.DiagramSummary, 0, len(s.diagrams))
	for _, d := range s.diagrams {
		out = append(out, flowboard.DiagramSummary{
			ID:        d.ID,
			Name:      d.Name,
			NodeCount: len(d.Nodes),
			EdgeCount: len(d.Edges),
			UpdatedAt: d.UpdatedAt,
		})
	}
	slices.SortFunc(out, func(a, b flowboard.DiagramSummary) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// copyDiagram goes through the graph so node extras and markers are not
// shared with the caller.
func copyDiagram(d *flowboard.Diagram) *flowboard.Diagram {
	g := flowboard.Graph{Nodes: d.Nodes, Edges: d.Edges}
	cp := g.Diagram(d.ID, d.Name)
	cp.UpdatedAt = d.UpdatedAt
	return cp
}
