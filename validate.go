package flowboard

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Bounds accepted for user supplied values.
const (
	MinNodeSize    = 10
	MaxNodeSize    = 2000
	MaxCoordinate  = 1e6
	MinStrokeWidth = 1
	MaxStrokeWidth = 10
	MaxLabelLength = 200
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// FieldError is one rejected field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError collects every rejected field of one input.
// It matches ErrInvalid under errors.Is.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Reason
	}
	return "flowboard: invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

type checker struct {
	fields []FieldError
}

func (c *checker) fail(field, format string, args ...any) {
	c.fields = append(c.fields, FieldError{Field: field, Reason: fmt.Sprintf(format, args...)})
}

func (c *checker) color(field, v string, required bool) {
	if v == "" {
		if required {
			c.fail(field, "is required")
		}
		return
	}
	if !hexColor.MatchString(v) {
		c.fail(field, "must be a hex color like #3B82F6, got %q", v)
	}
}

func (c *checker) label(field, v string) {
	if utf8.RuneCountInString(v) > MaxLabelLength {
		c.fail(field, "must be at most %d characters", MaxLabelLength)
	}
}

// size allows zero, meaning "use the default".
func (c *checker) size(field string, v float64) {
	if v == 0 {
		return
	}
	if !finite(v) || v < MinNodeSize || v > MaxNodeSize {
		c.fail(field, "must be between %d and %d", MinNodeSize, MaxNodeSize)
	}
}

func (c *checker) coordinate(field string, v float64) {
	if !finite(v) || math.Abs(v) > MaxCoordinate {
		c.fail(field, "must be within ±%g", float64(MaxCoordinate))
	}
}

func (c *checker) strokeWidth(field string, v float64) {
	if v == 0 {
		return
	}
	if !finite(v) || v < MinStrokeWidth || v > MaxStrokeWidth {
		c.fail(field, "must be between %d and %d", MinStrokeWidth, MaxStrokeWidth)
	}
}

func (c *checker) marker(field string, m *Marker) {
	if m == nil {
		return
	}
	if m.Type != MarkerArrow && m.Type != MarkerArrowClosed {
		c.fail(field+".type", "unknown marker type %q", m.Type)
	}
	c.color(field+".color", m.Color, false)
	if m.Width < 0 || m.Height < 0 {
		c.fail(field, "size must not be negative")
	}
}

func (c *checker) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// ValidateNode checks every field of n.
func ValidateNode(n Node) error {
	var c checker
	if strings.TrimSpace(n.ID) == "" {
		c.fail("id", "is required")
	}
	if !n.Type.Valid() {
		c.fail("type", "unknown node type %q", n.Type)
	}
	c.coordinate("position.x", n.Position.X)
	c.coordinate("position.y", n.Position.Y)
	c.label("data.label", n.Data.Label)
	c.color("data.backgroundColor", n.Data.BackgroundColor, false)
	c.size("data.width", n.Data.Width)
	c.size("data.height", n.Data.Height)
	return c.err()
}

// ValidateEdge checks every field of e. Endpoint existence is checked by
// the graph, not here.
func ValidateEdge(e Edge) error {
	var c checker
	if strings.TrimSpace(e.ID) == "" {
		c.fail("id", "is required")
	}
	if e.Source == "" {
		c.fail("source", "is required")
	}
	if e.Target == "" {
		c.fail("target", "is required")
	}
	if !e.Type.Valid() {
		c.fail("type", "unknown edge type %q", e.Type)
	}
	c.label("label", e.Label)
	c.color("style.stroke", e.Style.Stroke, false)
	c.strokeWidth("style.strokeWidth", e.Style.StrokeWidth)
	c.marker("markerEnd", e.MarkerEnd)
	c.marker("markerStart", e.MarkerStart)
	return c.err()
}

// ValidatePosition checks a drag target.
func ValidatePosition(p Position) error {
	var c checker
	c.coordinate("position.x", p.X)
	c.coordinate("position.y", p.Y)
	return c.err()
}
