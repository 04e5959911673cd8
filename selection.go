package flowboard

// Panel is the property panel currently shown.
type Panel string

const (
	PanelHidden Panel = ""
	PanelNode   Panel = "node"
	PanelEdge   Panel = "edge"
)

// Selection tracks the single selected node or edge. At most one of
// NodeID and EdgeID is set.
type Selection struct {
	NodeID string `json:"selectedNodeId,omitempty"`
	EdgeID string `json:"selectedEdgeId,omitempty"`
	Panel  Panel  `json:"panel,omitempty"`
}

// SelectNode selects a node and opens the node panel.
func (s Selection) SelectNode(id string) Selection {
	return Selection{NodeID: id, Panel: PanelNode}
}

// SelectEdge selects an edge and opens the edge panel.
func (s Selection) SelectEdge(id string) Selection {
	return Selection{EdgeID: id, Panel: PanelEdge}
}

// Clear drops the selection and hides the panel.
func (s Selection) Clear() Selection { return Selection{} }

// ClosePanel hides the panel but keeps the selection highlighted.
func (s Selection) ClosePanel() Selection {
	s.Panel = PanelHidden
	return s
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return s.NodeID == "" && s.EdgeID == "" }

// Prune clears the selection if it points at an entity g no longer has.
func (s Selection) Prune(g Graph) Selection {
	if s.NodeID != "" && !g.HasNode(s.NodeID) {
		return s.Clear()
	}
	if s.EdgeID != "" && g.edgeIndex(s.EdgeID) < 0 {
		return s.Clear()
	}
	return s
}
