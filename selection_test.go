package flowboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionMutualExclusion(t *testing.T) {
	var s Selection

	s = s.SelectNode("a")
	assert.Equal(t, Selection{NodeID: "a", Panel: PanelNode}, s)

	s = s.SelectEdge("b")
	assert.Equal(t, Selection{EdgeID: "b", Panel: PanelEdge}, s)

	s = s.SelectNode("c")
	assert.Equal(t, Selection{NodeID: "c", Panel: PanelNode}, s)

	assert.Equal(t, Selection{}, s.Clear())
}

func TestSelectionInterleavings(t *testing.T) {
	// Every sequence of up to four clicks ends with exactly the last click selected.
	clicks := []func(Selection) Selection{
		func(s Selection) Selection { return s.SelectNode("n") },
		func(s Selection) Selection { return s.SelectEdge("e") },
		func(s Selection) Selection { return s.Clear() },
	}
	var walk func(s Selection, depth int)
	walk = func(s Selection, depth int) {
		assert.False(t, s.NodeID != "" && s.EdgeID != "", "both selected: %+v", s)
		if depth == 0 {
			return
		}
		for _, click := range clicks {
			walk(click(s), depth-1)
		}
	}
	walk(Selection{}, 4)
}

func TestClosePanelKeepsSelection(t *testing.T) {
	s := Selection{}.SelectEdge("e1").ClosePanel()
	assert.Equal(t, "e1", s.EdgeID)
	assert.Equal(t, PanelHidden, s.Panel)
	assert.False(t, s.Empty())
}

func TestSelectionPrune(t *testing.T) {
	g := seedGraph(t)

	assert.Equal(t, Selection{}, Selection{}.SelectNode("gone").Prune(g))
	assert.Equal(t, Selection{}, Selection{}.SelectEdge("gone").Prune(g))

	kept := Selection{}.SelectEdge("n1-n2")
	assert.Equal(t, kept, kept.Prune(g))
}
