package flowboard

import (
	"encoding/json"
	"maps"
	"time"
)

// NodeType selects how the canvas draws a node and which handles it exposes.
type NodeType string

const (
	NodeDefault NodeType = "default"
	NodeInput   NodeType = "input"
	NodeOutput  NodeType = "output"
	NodeCustom  NodeType = "custom"
)

// NodeTypes lists every node type in sidebar order.
var NodeTypes = []NodeType{NodeInput, NodeDefault, NodeOutput, NodeCustom}

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodeDefault, NodeInput, NodeOutput, NodeCustom:
		return true
	}
	return false
}

// HasSource reports whether edges may start at nodes of this type.
func (t NodeType) HasSource() bool { return t != NodeOutput }

// HasTarget reports whether edges may end at nodes of this type.
func (t NodeType) HasTarget() bool { return t != NodeInput }

// EdgeType selects the path shape the canvas routes an edge with.
type EdgeType string

const (
	EdgeDefault    EdgeType = "default"
	EdgeStraight   EdgeType = "straight"
	EdgeStep       EdgeType = "step"
	EdgeSmoothStep EdgeType = "smoothstep"
	EdgeBezier     EdgeType = "bezier"
)

// Valid reports whether t is a known edge type.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeDefault, EdgeStraight, EdgeStep, EdgeSmoothStep, EdgeBezier:
		return true
	}
	return false
}

// MarkerType is the arrowhead shape drawn at an edge end.
type MarkerType string

const (
	MarkerArrow       MarkerType = "arrow"
	MarkerArrowClosed MarkerType = "arrowclosed"
)

// Position is a canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the styling payload shared by every node type.
// Extra carries keys specific to a node variant (custom nodes mostly);
// it round-trips through storage untouched.
type NodeData struct {
	Label           string                     `json:"label"`
	BackgroundColor string                     `json:"backgroundColor,omitempty"`
	Width           float64                    `json:"width,omitempty"`
	Height          float64                    `json:"height,omitempty"`
	Animated        bool                       `json:"animated,omitempty"`
	Extra           map[string]json.RawMessage `json:"extra,omitempty"`
}

// Node is a diagram entity placed on the canvas.
// Selected is computed for snapshots only and is never persisted.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
	Selected bool     `json:"selected,omitempty"`
}

// Background returns the node color, falling back to the type default.
func (n Node) Background() string {
	if n.Data.BackgroundColor != "" {
		return n.Data.BackgroundColor
	}
	return DefaultBackground(n.Type)
}

// Size returns the node dimensions, falling back to the default size.
func (n Node) Size() (w, h float64) {
	w, h = n.Data.Width, n.Data.Height
	if w == 0 {
		w = DefaultNodeWidth
	}
	if h == 0 {
		h = DefaultNodeHeight
	}
	return w, h
}

func (n Node) clone() Node {
	n.Data.Extra = maps.Clone(n.Data.Extra)
	return n
}

// EdgeStyle is the stroke of an edge path.
type EdgeStyle struct {
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// Marker describes an arrowhead.
type Marker struct {
	Type   MarkerType `json:"type"`
	Color  string     `json:"color,omitempty"`
	Width  float64    `json:"width,omitempty"`
	Height float64    `json:"height,omitempty"`
}

// Edge connects a source node to a target node.
type Edge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	Label        string    `json:"label,omitempty"`
	Type         EdgeType  `json:"type"`
	Animated     bool      `json:"animated"`
	Style        EdgeStyle `json:"style"`
	MarkerEnd    *Marker   `json:"markerEnd,omitempty"`
	MarkerStart  *Marker   `json:"markerStart,omitempty"`
	Selected     bool      `json:"selected,omitempty"`
}

// Touches reports whether the edge starts or ends at nodeID.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

func (e Edge) clone() Edge {
	if e.MarkerEnd != nil {
		m := *e.MarkerEnd
		e.MarkerEnd = &m
	}
	if e.MarkerStart != nil {
		m := *e.MarkerStart
		e.MarkerStart = &m
	}
	return e
}

// Connection is what the canvas reports when the user drags from one
// handle to another.
type Connection struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Diagram is a named, persisted graph.
type Diagram struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// DiagramSummary is a listing row for a stored diagram.
type DiagramSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	UpdatedAt time.Time `json:"updated_at"`
}
