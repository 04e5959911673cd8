package flowboard

// ArrowType is the arrowhead choice offered by the edge panel.
type ArrowType string

const (
	ArrowNone          ArrowType = "default"
	ArrowClosed        ArrowType = "arrowclosed"
	ArrowBidirectional ArrowType = "bidirectional"
)

// Valid reports whether a is one of the panel's arrow choices.
func (a ArrowType) Valid() bool {
	return a == ArrowNone || a == ArrowClosed || a == ArrowBidirectional
}

// ArrowFromMarkers derives the panel arrow choice from an edge's markers.
// A start marker without an end marker reads as no arrow.
func ArrowFromMarkers(end, start *Marker) ArrowType {
	switch {
	case end != nil && start != nil:
		return ArrowBidirectional
	case end != nil:
		return ArrowClosed
	}
	return ArrowNone
}

// NodeForm is the node panel's staging copy of a node's editable fields.
type NodeForm struct {
	Label           string   `json:"label"`
	Type            NodeType `json:"type"`
	X               float64  `json:"x"`
	Y               float64  `json:"y"`
	BackgroundColor string   `json:"backgroundColor"`
}

// LoadNodeForm fills a form from n.
func LoadNodeForm(n Node) NodeForm {
	f := NodeForm{
		Label:           n.Data.Label,
		Type:            n.Type,
		X:               n.Position.X,
		Y:               n.Position.Y,
		BackgroundColor: n.Data.BackgroundColor,
	}
	if f.Type == "" {
		f.Type = NodeDefault
	}
	if f.BackgroundColor == "" {
		f.BackgroundColor = FallbackColor
	}
	return f
}

// Validate checks the staged values.
func (f NodeForm) Validate() error {
	var c checker
	c.label("label", f.Label)
	if !f.Type.Valid() {
		c.fail("type", "unknown node type %q", f.Type)
	}
	c.coordinate("x", f.X)
	c.coordinate("y", f.Y)
	c.color("backgroundColor", f.BackgroundColor, true)
	return c.err()
}

// Patch returns the update that writes the form back. Width, height,
// animation and extra data are not on the form and stay as they are.
func (f NodeForm) Patch() NodePatch {
	return NodePatch{
		Type:            &f.Type,
		Position:        &Position{X: f.X, Y: f.Y},
		Label:           &f.Label,
		BackgroundColor: &f.BackgroundColor,
	}
}

// EdgeForm is the edge panel's staging copy of an edge's editable fields.
type EdgeForm struct {
	Label       string    `json:"label"`
	Type        EdgeType  `json:"type"`
	Animated    bool      `json:"animated"`
	Stroke      string    `json:"stroke"`
	StrokeWidth float64   `json:"strokeWidth"`
	Arrow       ArrowType `json:"arrow"`
}

// LoadEdgeForm fills a form from e.
func LoadEdgeForm(e Edge) EdgeForm {
	f := EdgeForm{
		Label:       e.Label,
		Type:        e.Type,
		Animated:    e.Animated,
		Stroke:      e.Style.Stroke,
		StrokeWidth: e.Style.StrokeWidth,
		Arrow:       ArrowFromMarkers(e.MarkerEnd, e.MarkerStart),
	}
	if f.Type == "" {
		f.Type = EdgeDefault
	}
	if f.Stroke == "" {
		f.Stroke = DefaultStroke
	}
	if f.StrokeWidth == 0 {
		f.StrokeWidth = DefaultStrokeWidth
	}
	return f
}

// Validate checks the staged values.
func (f EdgeForm) Validate() error {
	var c checker
	c.label("label", f.Label)
	if !f.Type.Valid() {
		c.fail("type", "unknown edge type %q", f.Type)
	}
	if !f.Arrow.Valid() {
		c.fail("arrow", "unknown arrow type %q", f.Arrow)
	}
	c.color("stroke", f.Stroke, true)
	if f.StrokeWidth == 0 {
		c.fail("strokeWidth", "is required")
	} else {
		c.strokeWidth("strokeWidth", f.StrokeWidth)
	}
	return c.err()
}

// Markers builds the arrowheads for the form's arrow choice. Arrows take
// the stroke color and a fixed size.
func (f EdgeForm) Markers() Markers {
	arrow := func() *Marker {
		return &Marker{Type: MarkerArrowClosed, Color: f.Stroke, Width: ArrowSize, Height: ArrowSize}
	}
	switch f.Arrow {
	case ArrowClosed:
		return Markers{End: arrow()}
	case ArrowBidirectional:
		return Markers{End: arrow(), Start: arrow()}
	}
	return Markers{}
}

// Patch returns the update that writes the form back.
func (f EdgeForm) Patch() EdgePatch {
	m := f.Markers()
	return EdgePatch{
		Label:       &f.Label,
		Type:        &f.Type,
		Animated:    &f.Animated,
		Stroke:      &f.Stroke,
		StrokeWidth: &f.StrokeWidth,
		Markers:     &m,
	}
}
