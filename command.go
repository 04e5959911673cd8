package flowboard

import "fmt"

// Command is one of the enumerated editor operations. The set is closed:
// only the types in this file implement it.
type Command interface {
	// Name identifies the command in logs and metrics.
	Name() string
	apply(s *state) (created string, err error)
}

// AddNode appends a node. An empty ID gets a timestamp based one and an
// empty Type means NodeDefault.
type AddNode struct {
	Node Node `json:"node"`
}

func (AddNode) Name() string { return "add_node" }

func (c AddNode) apply(s *state) (string, error) {
	n := c.Node
	if n.Type == "" {
		n.Type = NodeDefault
	}
	if n.ID == "" {
		n.ID = UniqueNodeID(s.graph, s.now())
	}
	g, err := s.graph.AddNode(n)
	if err != nil {
		return "", err
	}
	s.graph = g
	return n.ID, nil
}

// CreateNode adds a node of Type at Position with the sidebar defaults.
type CreateNode struct {
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
}

func (CreateNode) Name() string { return "create_node" }

func (c CreateNode) apply(s *state) (string, error) {
	t := c.Type
	if t == "" {
		t = NodeDefault
	}
	return AddNode{Node: NewNode("", t, c.Position)}.apply(s)
}

// DeleteNode removes a node and every edge touching it.
type DeleteNode struct {
	ID string `json:"id"`
}

func (DeleteNode) Name() string { return "delete_node" }

func (c DeleteNode) apply(s *state) (string, error) {
	g, err := s.graph.DeleteNode(c.ID)
	if err != nil {
		return "", err
	}
	s.graph = g
	return "", nil
}

// MoveNode records a drag.
type MoveNode struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
}

func (MoveNode) Name() string { return "move_node" }

func (c MoveNode) apply(s *state) (string, error) {
	g, err := s.graph.MoveNode(c.ID, c.Position)
	if err != nil {
		return "", err
	}
	s.graph = g
	return "", nil
}

// UpdateNode patches a node's fields.
type UpdateNode struct {
	ID    string    `json:"id"`
	Patch NodePatch `json:"patch"`
}

func (UpdateNode) Name() string { return "update_node" }

func (c UpdateNode) apply(s *state) (string, error) {
	g, err := s.graph.UpdateNode(c.ID, c.Patch)
	if err != nil {
		return "", err
	}
	s.graph = g
	return "", nil
}

// ReplaceNode swaps a whole node by id.
type ReplaceNode struct {
	Node Node `json:"node"`
}

func (ReplaceNode) Name() string { return "replace_node" }

func (c ReplaceNode) apply(s *state) (string, error) {
	g, err := s.graph.ReplaceNode(c.Node)
	if err != nil {
		return "", err
	}
	s.graph = g
	return "", nil
}

// Connect adds the edge a connect gesture asks for.
type Connect struct {
	Connection Connection `json:"connection"`
}

func (Connect) Name() string { return "connect" }

func (c Connect) apply(s *state) (string, error) {
	g, e, err := s.graph.AddEdge(c.Connection)
	if err != nil {
		return "", err
	}
	s.graph = g
	return e.ID, nil
}

// DeleteEdge removes an edge.
type DeleteEdge struct {
	ID string `json:"id"`
}

func (DeleteEdge) Name() string { return "delete_edge" }

func (c DeleteEdge) apply(s *state) (string, error) {
	g, err := s.graph.DeleteEdge(c.ID)
	if err != nil {
		return "", err
	}
	s.graph = g
	return "", nil
}

// UpdateEdge patches an edge's fields.
type UpdateEdge struct {
	ID    string    `json:"id"`
	Patch EdgePatch `json:"patch"`
}

func (UpdateEdge) Name() string { return "update_edge" }

func (c UpdateEdge) apply(s *state) (string, error) {
	g, err := s.graph.UpdateEdge(c.ID, c.Patch)
	if err != nil {
		return "", err
	}
	s.graph = g
	return "", nil
}

// ReplaceEdge swaps a whole edge by id.
type ReplaceEdge struct {
	Edge Edge `json:"edge"`
}

func (ReplaceEdge) Name() string { return "replace_edge" }

func (c ReplaceEdge) apply(s *state) (string, error) {
	g, err := s.graph.ReplaceEdge(c.Edge)
	if err != nil {
		return "", err
	}
	s.graph = g
	return "", nil
}

// SelectNode is a click on a node.
type SelectNode struct {
	ID string `json:"id"`
}

func (SelectNode) Name() string { return "select_node" }

func (c SelectNode) apply(s *state) (string, error) {
	if !s.graph.HasNode(c.ID) {
		return "", ErrNodeNotFound
	}
	s.sel = s.sel.SelectNode(c.ID)
	return "", nil
}

// SelectEdge is a click on an edge.
type SelectEdge struct {
	ID string `json:"id"`
}

func (SelectEdge) Name() string { return "select_edge" }

func (c SelectEdge) apply(s *state) (string, error) {
	if _, ok := s.graph.Edge(c.ID); !ok {
		return "", ErrEdgeNotFound
	}
	s.sel = s.sel.SelectEdge(c.ID)
	return "", nil
}

// ClearSelection is a click on the empty canvas.
type ClearSelection struct{}

func (ClearSelection) Name() string { return "clear_selection" }

func (ClearSelection) apply(s *state) (string, error) {
	s.sel = s.sel.Clear()
	return "", nil
}

// ClosePanel hides the property panel without deselecting.
type ClosePanel struct{}

func (ClosePanel) Name() string { return "close_panel" }

func (ClosePanel) apply(s *state) (string, error) {
	s.sel = s.sel.ClosePanel()
	return "", nil
}

// StageNodeForm replaces the node panel's staged fields. Nothing is
// validated or written to the graph until ApplyPanel.
type StageNodeForm struct {
	Form NodeForm `json:"form"`
}

func (StageNodeForm) Name() string { return "stage_node_form" }

func (c StageNodeForm) apply(s *state) (string, error) {
	if s.sel.NodeID == "" {
		return "", fmt.Errorf("%w: no node selected", ErrNoSelection)
	}
	f := c.Form
	s.nodeForm = &f
	return "", nil
}

// StageEdgeForm replaces the edge panel's staged fields.
type StageEdgeForm struct {
	Form EdgeForm `json:"form"`
}

func (StageEdgeForm) Name() string { return "stage_edge_form" }

func (c StageEdgeForm) apply(s *state) (string, error) {
	if s.sel.EdgeID == "" {
		return "", fmt.Errorf("%w: no edge selected", ErrNoSelection)
	}
	f := c.Form
	s.edgeForm = &f
	return "", nil
}

// ApplyPanel validates the staged form of the selected entity and writes
// it back in one update.
type ApplyPanel struct{}

func (ApplyPanel) Name() string { return "apply_panel" }

func (ApplyPanel) apply(s *state) (string, error) {
	switch {
	case s.sel.NodeID != "" && s.nodeForm != nil:
		if err := s.nodeForm.Validate(); err != nil {
			return "", err
		}
		g, err := s.graph.UpdateNode(s.sel.NodeID, s.nodeForm.Patch())
		if err != nil {
			return "", err
		}
		s.graph = g
	case s.sel.EdgeID != "" && s.edgeForm != nil:
		if err := s.edgeForm.Validate(); err != nil {
			return "", err
		}
		g, err := s.graph.UpdateEdge(s.sel.EdgeID, s.edgeForm.Patch())
		if err != nil {
			return "", err
		}
		s.graph = g
	default:
		return "", ErrNoSelection
	}
	return "", nil
}

// ResetPanel discards staged edits and refills the form from the graph.
type ResetPanel struct{}

func (ResetPanel) Name() string { return "reset_panel" }

func (ResetPanel) apply(s *state) (string, error) {
	if s.sel.Empty() {
		return "", ErrNoSelection
	}
	s.loadedNode, s.loadedEdge = nil, nil
	return "", nil
}
