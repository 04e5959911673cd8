package flowboard

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Graph is an immutable snapshot of a diagram's nodes and edges.
// Every mutator returns a new Graph and leaves the receiver untouched,
// so a snapshot handed to a renderer never changes underneath it.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodePatch lists node fields to change. Nil fields are left alone.
// Extra keys are merged into the node's extra data; a JSON null value
// removes the key.
type NodePatch struct {
	Type            *NodeType                  `json:"type,omitempty"`
	Position        *Position                  `json:"position,omitempty"`
	Label           *string                    `json:"label,omitempty"`
	BackgroundColor *string                    `json:"backgroundColor,omitempty"`
	Width           *float64                   `json:"width,omitempty"`
	Height          *float64                   `json:"height,omitempty"`
	Animated        *bool                      `json:"animated,omitempty"`
	Extra           map[string]json.RawMessage `json:"extra,omitempty"`
}

// Markers replaces both arrowheads of an edge at once.
type Markers struct {
	End   *Marker `json:"end"`
	Start *Marker `json:"start"`
}

// EdgePatch lists edge fields to change. Nil fields are left alone.
type EdgePatch struct {
	Source      *string   `json:"source,omitempty"`
	Target      *string   `json:"target,omitempty"`
	Label       *string   `json:"label,omitempty"`
	Type        *EdgeType `json:"type,omitempty"`
	Animated    *bool     `json:"animated,omitempty"`
	Stroke      *string   `json:"stroke,omitempty"`
	StrokeWidth *float64  `json:"strokeWidth,omitempty"`
	Markers     *Markers  `json:"markers,omitempty"`
}

// FromDiagram builds a graph from stored nodes and edges, validating
// every entity and every endpoint.
func FromDiagram(d *Diagram) (Graph, error) {
	var g Graph
	var err error
	for _, n := range d.Nodes {
		if g, err = g.AddNode(n); err != nil {
			return Graph{}, err
		}
	}
	for _, e := range d.Edges {
		if g, err = g.InsertEdge(e); err != nil {
			return Graph{}, err
		}
	}
	return g, nil
}

// Diagram wraps the graph for storage under id.
func (g Graph) Diagram(id, name string) *Diagram {
	d := &Diagram{ID: id, Name: name, Nodes: make([]Node, len(g.Nodes)), Edges: make([]Edge, len(g.Edges))}
	for i, n := range g.Nodes {
		d.Nodes[i] = n.clone()
	}
	for i, e := range g.Edges {
		d.Edges[i] = e.clone()
	}
	return d
}

func (g Graph) nodeIndex(id string) int {
	return slices.IndexFunc(g.Nodes, func(n Node) bool { return n.ID == id })
}

func (g Graph) edgeIndex(id string) int {
	return slices.IndexFunc(g.Edges, func(e Edge) bool { return e.ID == id })
}

// HasNode reports whether a node with id exists.
func (g Graph) HasNode(id string) bool { return g.nodeIndex(id) >= 0 }

// Node returns the node with id.
func (g Graph) Node(id string) (Node, bool) {
	if i := g.nodeIndex(id); i >= 0 {
		return g.Nodes[i].clone(), true
	}
	return Node{}, false
}

// Edge returns the edge with id.
func (g Graph) Edge(id string) (Edge, bool) {
	if i := g.edgeIndex(id); i >= 0 {
		return g.Edges[i].clone(), true
	}
	return Edge{}, false
}

// AddNode appends n. The id must not already be in use.
func (g Graph) AddNode(n Node) (Graph, error) {
	if err := ValidateNode(n); err != nil {
		return g, err
	}
	if g.HasNode(n.ID) {
		return g, fmt.Errorf("%w: node %q", ErrDuplicateID, n.ID)
	}
	n = n.clone()
	n.Selected = false
	g.Nodes = append(slices.Clip(g.Nodes), n)
	return g, nil
}

// DeleteNode removes the node with id and every edge touching it.
func (g Graph) DeleteNode(id string) (Graph, error) {
	if !g.HasNode(id) {
		return g, ErrNodeNotFound
	}
	g.Nodes = slices.DeleteFunc(slices.Clone(g.Nodes), func(n Node) bool { return n.ID == id })
	g.Edges = slices.DeleteFunc(slices.Clone(g.Edges), func(e Edge) bool { return e.Touches(id) })
	return g, nil
}

// AddEdge turns a connect gesture into an edge with a generated id and
// the default style, and appends it.
func (g Graph) AddEdge(c Connection) (Graph, Edge, error) {
	e := NewEdge(c)
	next, err := g.InsertEdge(e)
	if err != nil {
		return g, Edge{}, err
	}
	return next, e, nil
}

// InsertEdge appends a fully specified edge, keeping its id.
func (g Graph) InsertEdge(e Edge) (Graph, error) {
	if err := ValidateEdge(e); err != nil {
		return g, err
	}
	if g.edgeIndex(e.ID) >= 0 {
		return g, fmt.Errorf("%w: edge %q", ErrDuplicateID, e.ID)
	}
	if err := g.checkConnection(e, ""); err != nil {
		return g, err
	}
	e = e.clone()
	e.Selected = false
	g.Edges = append(slices.Clip(g.Edges), e)
	return g, nil
}

// DeleteEdge removes the edge with id.
func (g Graph) DeleteEdge(id string) (Graph, error) {
	if g.edgeIndex(id) < 0 {
		return g, ErrEdgeNotFound
	}
	g.Edges = slices.DeleteFunc(slices.Clone(g.Edges), func(e Edge) bool { return e.ID == id })
	return g, nil
}

// MoveNode sets the position of the node with id.
func (g Graph) MoveNode(id string, pos Position) (Graph, error) {
	return g.UpdateNode(id, NodePatch{Position: &pos})
}

// UpdateNode applies p to the node with id. Fields p leaves nil, and
// extra keys it does not mention, keep their current values.
func (g Graph) UpdateNode(id string, p NodePatch) (Graph, error) {
	i := g.nodeIndex(id)
	if i < 0 {
		return g, ErrNodeNotFound
	}
	n := g.Nodes[i].clone()
	if p.Type != nil {
		n.Type = *p.Type
	}
	if p.Position != nil {
		n.Position = *p.Position
	}
	if p.Label != nil {
		n.Data.Label = *p.Label
	}
	if p.BackgroundColor != nil {
		n.Data.BackgroundColor = *p.BackgroundColor
	}
	if p.Width != nil {
		n.Data.Width = *p.Width
	}
	if p.Height != nil {
		n.Data.Height = *p.Height
	}
	if p.Animated != nil {
		n.Data.Animated = *p.Animated
	}
	if len(p.Extra) > 0 {
		if n.Data.Extra == nil {
			n.Data.Extra = make(map[string]json.RawMessage, len(p.Extra))
		}
		for k, v := range p.Extra {
			if string(v) == "null" {
				delete(n.Data.Extra, k)
				continue
			}
			n.Data.Extra[k] = v
		}
		if len(n.Data.Extra) == 0 {
			n.Data.Extra = nil
		}
	}
	return g.setNode(i, n)
}

// ReplaceNode swaps the node whose id matches n.ID for n.
func (g Graph) ReplaceNode(n Node) (Graph, error) {
	i := g.nodeIndex(n.ID)
	if i < 0 {
		return g, ErrNodeNotFound
	}
	return g.setNode(i, n.clone())
}

func (g Graph) setNode(i int, n Node) (Graph, error) {
	if err := ValidateNode(n); err != nil {
		return g, err
	}
	if n.Type != g.Nodes[i].Type {
		for _, e := range g.Edges {
			if e.Source == n.ID && !n.Type.HasSource() || e.Target == n.ID && !n.Type.HasTarget() {
				return g, fmt.Errorf("%w: %s node %q would orphan edge %q", ErrInvalidConnection, n.Type, n.ID, e.ID)
			}
		}
	}
	n.Selected = false
	g.Nodes = slices.Clone(g.Nodes)
	g.Nodes[i] = n
	return g, nil
}

// UpdateEdge applies p to the edge with id.
func (g Graph) UpdateEdge(id string, p EdgePatch) (Graph, error) {
	i := g.edgeIndex(id)
	if i < 0 {
		return g, ErrEdgeNotFound
	}
	e := g.Edges[i].clone()
	if p.Source != nil {
		e.Source = *p.Source
	}
	if p.Target != nil {
		e.Target = *p.Target
	}
	if p.Label != nil {
		e.Label = *p.Label
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Animated != nil {
		e.Animated = *p.Animated
	}
	if p.Stroke != nil {
		e.Style.Stroke = *p.Stroke
	}
	if p.StrokeWidth != nil {
		e.Style.StrokeWidth = *p.StrokeWidth
	}
	if p.Markers != nil {
		e.MarkerEnd, e.MarkerStart = p.Markers.End, p.Markers.Start
		e = e.clone()
	}
	return g.setEdge(i, e, p.Source != nil || p.Target != nil)
}

// ReplaceEdge swaps the edge whose id matches e.ID for e.
func (g Graph) ReplaceEdge(e Edge) (Graph, error) {
	i := g.edgeIndex(e.ID)
	if i < 0 {
		return g, ErrEdgeNotFound
	}
	old := g.Edges[i]
	rewired := old.Source != e.Source || old.Target != e.Target ||
		old.SourceHandle != e.SourceHandle || old.TargetHandle != e.TargetHandle
	return g.setEdge(i, e.clone(), rewired)
}

func (g Graph) setEdge(i int, e Edge, rewired bool) (Graph, error) {
	if err := ValidateEdge(e); err != nil {
		return g, err
	}
	if rewired {
		if err := g.checkConnection(e, e.ID); err != nil {
			return g, err
		}
	}
	e.Selected = false
	g.Edges = slices.Clone(g.Edges)
	g.Edges[i] = e
	return g, nil
}

// checkConnection verifies both endpoints exist and expose a matching
// handle, and that no other edge (besides skipID) joins the same handles.
func (g Graph) checkConnection(e Edge, skipID string) error {
	src, ok := g.Node(e.Source)
	if !ok {
		return fmt.Errorf("%w: unknown source node %q", ErrInvalidConnection, e.Source)
	}
	tgt, ok := g.Node(e.Target)
	if !ok {
		return fmt.Errorf("%w: unknown target node %q", ErrInvalidConnection, e.Target)
	}
	if !src.Type.HasSource() {
		return fmt.Errorf("%w: %s node %q has no source handle", ErrInvalidConnection, src.Type, src.ID)
	}
	if !tgt.Type.HasTarget() {
		return fmt.Errorf("%w: %s node %q has no target handle", ErrInvalidConnection, tgt.Type, tgt.ID)
	}
	for _, other := range g.Edges {
		if other.ID == skipID {
			continue
		}
		if other.Source == e.Source && other.Target == e.Target &&
			other.SourceHandle == e.SourceHandle && other.TargetHandle == e.TargetHandle {
			return fmt.Errorf("%w: %s -> %s", ErrEdgeExists, e.Source, e.Target)
		}
	}
	return nil
}

// EdgesOf returns the edges touching nodeID, in graph order.
func (g Graph) EdgesOf(nodeID string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Touches(nodeID) {
			out = append(out, e.clone())
		}
	}
	return out
}

// Equal reports whether two graphs hold the same entities in the same order.
func (g Graph) Equal(o Graph) bool {
	return slices.EqualFunc(g.Nodes, o.Nodes, nodeEqual) && slices.EqualFunc(g.Edges, o.Edges, edgeEqual)
}

// nodeEqual ignores the Selected flag.
func nodeEqual(a, b Node) bool {
	return a.ID == b.ID && a.Type == b.Type && a.Position == b.Position &&
		a.Data.Label == b.Data.Label && a.Data.BackgroundColor == b.Data.BackgroundColor &&
		a.Data.Width == b.Data.Width && a.Data.Height == b.Data.Height &&
		a.Data.Animated == b.Data.Animated &&
		maps.EqualFunc(a.Data.Extra, b.Data.Extra, func(x, y json.RawMessage) bool { return string(x) == string(y) })
}

// edgeEqual ignores the Selected flag.
func edgeEqual(a, b Edge) bool {
	return a.ID == b.ID && a.Source == b.Source && a.Target == b.Target &&
		a.SourceHandle == b.SourceHandle && a.TargetHandle == b.TargetHandle &&
		a.Label == b.Label && a.Type == b.Type && a.Animated == b.Animated &&
		a.Style == b.Style && markerEqual(a.MarkerEnd, b.MarkerEnd) &&
		markerEqual(a.MarkerStart, b.MarkerStart)
}

func markerEqual(a, b *Marker) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
