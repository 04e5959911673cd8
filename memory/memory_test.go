package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flowboard"
)

func sample() *flowboard.Diagram {
	in := flowboard.NewNode("a", flowboard.NodeInput, flowboard.Position{X: 10, Y: 20})
	in.Data.Extra = map[string]json.RawMessage{"prompt": json.RawMessage(`"name?"`)}
	out := flowboard.NewNode("b", flowboard.NodeOutput, flowboard.Position{X: 10, Y: 120})
	e := flowboard.NewEdge(flowboard.Connection{Source: "a", Target: "b"})
	e.MarkerEnd = &flowboard.Marker{Type: flowboard.MarkerArrowClosed, Color: "#000000", Width: 20, Height: 20}
	return &flowboard.Diagram{ID: "d1", Name: "Flow", Nodes: []flowboard.Node{in, out}, Edges: []flowboard.Edge{e}}
}

func TestSaveGetCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return stamp }

	d := sample()
	require.NoError(t, s.SaveDiagram(ctx, d))
	assert.Equal(t, stamp, d.UpdatedAt)

	// Mutating the caller's copy does not reach the store.
	d.Nodes[0].Data.Label = "changed"
	d.Nodes[0].Data.Extra["prompt"] = json.RawMessage(`"other"`)
	d.Edges[0].MarkerEnd.Color = "#FFFFFF"

	got, err := s.GetDiagram(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Flow", got.Name)
	assert.Equal(t, "Input Node", got.Nodes[0].Data.Label)
	assert.JSONEq(t, `"name?"`, string(got.Nodes[0].Data.Extra["prompt"]))
	assert.Equal(t, "#000000", got.Edges[0].MarkerEnd.Color)
	assert.Equal(t, stamp, got.UpdatedAt)
}

func TestGetMissing(t *testing.T) {
	got, err := New().GetDiagram(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, id := range []string{"zeta", "alpha"} {
		d := sample()
		d.ID = id
		require.NoError(t, s.SaveDiagram(ctx, d))
	}

	list, err := s.ListDiagrams(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].ID)
	assert.Equal(t, 2, list[0].NodeCount)
	assert.Equal(t, 1, list[0].EdgeCount)

	require.NoError(t, s.DeleteDiagram(ctx, "alpha"))
	require.NoError(t, s.DeleteDiagram(ctx, "alpha"))
	list, err = s.ListDiagrams(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DropSchema(ctx))
	list, err = s.ListDiagrams(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, New().SaveDiagram(ctx, sample()), context.Canceled)
}
