package flowboard

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultNodeWidth  = 150
	DefaultNodeHeight = 50

	// FallbackColor is used wherever a color is read but absent.
	FallbackColor = "#6B7280"

	DefaultStroke      = "#000000"
	DefaultStrokeWidth = 2

	// ArrowSize is the fixed marker size; it does not follow stroke width.
	ArrowSize = 20
)

var defaultBackgrounds = map[NodeType]string{
	NodeInput:   "#3B82F6",
	NodeDefault: "#6B7280",
	NodeOutput:  "#10B981",
	NodeCustom:  "#EF4444",
}

// DefaultBackground returns the background a freshly added node of type t gets.
func DefaultBackground(t NodeType) string {
	if c, ok := defaultBackgrounds[t]; ok {
		return c
	}
	return FallbackColor
}

// DefaultLabel returns "Input Node", "Output Node" and so on.
func DefaultLabel(t NodeType) string {
	s := string(t)
	if s == "" {
		s = string(NodeDefault)
	}
	return strings.ToUpper(s[:1]) + s[1:] + " Node"
}

// NewNode builds a node the way the sidebar does: default label, size
// and the type's background color.
func NewNode(id string, t NodeType, pos Position) Node {
	return Node{
		ID:       id,
		Type:     t,
		Position: pos,
		Data: NodeData{
			Label:           DefaultLabel(t),
			BackgroundColor: DefaultBackground(t),
			Width:           DefaultNodeWidth,
			Height:          DefaultNodeHeight,
		},
	}
}

// NodeID returns a timestamp based node id, "node-<unix millis>".
func NodeID(now time.Time) string {
	return fmt.Sprintf("node-%d", now.UnixMilli())
}

// UniqueNodeID returns NodeID(now), suffixed until it does not collide
// with a node already in g. Two adds within the same millisecond stay
// distinct.
func UniqueNodeID(g Graph, now time.Time) string {
	base := NodeID(now)
	id := base
	for i := 1; g.HasNode(id); i++ {
		id = fmt.Sprintf("%s-%d", base, i)
	}
	return id
}

// NewEdge builds the edge a connect gesture produces: a generated id and
// the default style with no markers.
func NewEdge(c Connection) Edge {
	return Edge{
		ID:           uuid.NewString(),
		Source:       c.Source,
		Target:       c.Target,
		SourceHandle: c.SourceHandle,
		TargetHandle: c.TargetHandle,
		Type:         EdgeDefault,
		Style: EdgeStyle{
			Stroke:      DefaultStroke,
			StrokeWidth: DefaultStrokeWidth,
		},
	}
}

// SidebarPosition returns the random drop point the sidebar uses when a
// node is added without one: x in [100, 500), y in [100, 400).
func SidebarPosition() Position {
	return Position{X: rand.Float64()*400 + 100, Y: rand.Float64()*300 + 100}
}
