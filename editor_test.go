package flowboard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flowboard"
	"github.com/meikuraledutech/flowboard/memory"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func newEditor(t *testing.T, opts ...flowboard.Option) *flowboard.Editor {
	t.Helper()
	opts = append([]flowboard.Option{flowboard.WithClock(func() time.Time { return fixedNow })}, opts...)
	return flowboard.NewEditor("test", opts...)
}

func dispatch(t *testing.T, ed *flowboard.Editor, cmd flowboard.Command) flowboard.Snapshot {
	t.Helper()
	s, err := ed.Dispatch(context.Background(), cmd)
	require.NoError(t, err, cmd.Name())
	return s
}

func TestAddInputNodeThenDelete(t *testing.T) {
	ed := newEditor(t)
	dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeDefault})
	before := len(ed.Snapshot().Nodes)

	s := dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeInput, Position: flowboard.Position{X: 120, Y: 80}})
	require.Len(t, s.Nodes, before+1)

	added := s.Nodes[len(s.Nodes)-1]
	assert.Equal(t, s.Created, added.ID)
	assert.Equal(t, "#3B82F6", added.Data.BackgroundColor)
	assert.Equal(t, "Input Node", added.Data.Label)

	s = dispatch(t, ed, flowboard.Connect{Connection: flowboard.Connection{Source: added.ID, Target: s.Nodes[0].ID}})
	require.Len(t, s.Edges, 1)

	s = dispatch(t, ed, flowboard.DeleteNode{ID: added.ID})
	assert.Len(t, s.Nodes, before)
	assert.Empty(t, s.Edges)
}

func TestGeneratedNodeIDsAreUnique(t *testing.T) {
	ed := newEditor(t)
	seen := map[string]bool{}
	for range 5 {
		s := dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeCustom})
		assert.False(t, seen[s.Created], "id %s reused", s.Created)
		seen[s.Created] = true
	}
	assert.True(t, seen["node-1700000000000"])
	assert.True(t, seen["node-1700000000000-4"])
}

func TestAddNodeDuplicateIDRejected(t *testing.T) {
	ed := newEditor(t)
	dispatch(t, ed, flowboard.AddNode{Node: flowboard.NewNode("a", flowboard.NodeDefault, flowboard.Position{})})

	s, err := ed.Dispatch(context.Background(), flowboard.AddNode{Node: flowboard.NewNode("a", flowboard.NodeOutput, flowboard.Position{})})
	require.ErrorIs(t, err, flowboard.ErrDuplicateID)
	assert.Len(t, s.Nodes, 1)
}

func TestSelectionFlagsInSnapshot(t *testing.T) {
	ed := newEditor(t)
	a := dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeInput}).Created
	b := dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeOutput}).Created
	e := dispatch(t, ed, flowboard.Connect{Connection: flowboard.Connection{Source: a, Target: b}}).Created

	s := dispatch(t, ed, flowboard.SelectNode{ID: a})
	assert.True(t, s.Nodes[0].Selected)
	assert.False(t, s.Nodes[1].Selected)
	require.NotNil(t, s.NodeForm)
	assert.Nil(t, s.EdgeForm)

	s = dispatch(t, ed, flowboard.SelectEdge{ID: e})
	assert.Empty(t, s.Selection.NodeID)
	assert.Equal(t, e, s.Selection.EdgeID)
	assert.Equal(t, flowboard.PanelEdge, s.Selection.Panel)
	assert.False(t, s.Nodes[0].Selected)
	assert.True(t, s.Edges[0].Selected)
	assert.Nil(t, s.NodeForm)
	require.NotNil(t, s.EdgeForm)

	s = dispatch(t, ed, flowboard.ClearSelection{})
	assert.Equal(t, flowboard.Selection{}, s.Selection)
	assert.Nil(t, s.EdgeForm)
}

func TestSelectUnknownEntity(t *testing.T) {
	ed := newEditor(t)
	_, err := ed.Dispatch(context.Background(), flowboard.SelectNode{ID: "ghost"})
	assert.ErrorIs(t, err, flowboard.ErrNodeNotFound)
	_, err = ed.Dispatch(context.Background(), flowboard.SelectEdge{ID: "ghost"})
	assert.ErrorIs(t, err, flowboard.ErrEdgeNotFound)
}

func TestDeletingSelectedClearsSelection(t *testing.T) {
	ed := newEditor(t)
	a := dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeInput}).Created
	b := dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeOutput}).Created
	dispatch(t, ed, flowboard.Connect{Connection: flowboard.Connection{Source: a, Target: b}})

	dispatch(t, ed, flowboard.SelectNode{ID: b})
	s := dispatch(t, ed, flowboard.DeleteNode{ID: b})
	assert.True(t, s.Selection.Empty())
	assert.Equal(t, flowboard.PanelHidden, s.Selection.Panel)

	ed = newEditor(t)
	a = dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeInput}).Created
	b = dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeOutput}).Created
	e := dispatch(t, ed, flowboard.Connect{Connection: flowboard.Connection{Source: a, Target: b}}).Created

	// Cascaded edge deletion clears an edge selection too.
	dispatch(t, ed, flowboard.SelectEdge{ID: e})
	s = dispatch(t, ed, flowboard.DeleteNode{ID: a})
	assert.True(t, s.Selection.Empty())

	// Deleting something else keeps the selection.
	c := dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeDefault}).Created
	dispatch(t, ed, flowboard.SelectNode{ID: c})
	s = dispatch(t, ed, flowboard.DeleteNode{ID: b})
	assert.Equal(t, c, s.Selection.NodeID)
}

func TestNodePanelStageApplyReset(t *testing.T) {
	ed := newEditor(t)
	id := dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeCustom}).Created
	dispatch(t, ed, flowboard.UpdateNode{ID: id, Patch: flowboard.NodePatch{Animated: ptr(true)}})

	s := dispatch(t, ed, flowboard.SelectNode{ID: id})
	form := *s.NodeForm
	assert.Equal(t, "Custom Node", form.Label)

	form.Label = "Decision"
	form.X = 300
	s = dispatch(t, ed, flowboard.StageNodeForm{Form: form})
	assert.Equal(t, "Decision", s.NodeForm.Label)
	assert.Equal(t, "Custom Node", s.Nodes[0].Data.Label, "staging does not touch the graph")

	s = dispatch(t, ed, flowboard.ResetPanel{})
	assert.Equal(t, "Custom Node", s.NodeForm.Label)

	dispatch(t, ed, flowboard.StageNodeForm{Form: form})
	s = dispatch(t, ed, flowboard.ApplyPanel{})
	n := s.Nodes[0]
	assert.Equal(t, "Decision", n.Data.Label)
	assert.Equal(t, 300.0, n.Position.X)
	assert.True(t, n.Data.Animated, "fields missing from the form survive apply")
	assert.Equal(t, "Decision", s.NodeForm.Label)
}

func TestPanelApplyRejectsInvalidForm(t *testing.T) {
	ed := newEditor(t)
	id := dispatch(t, ed, flowboard.CreateNode{}).Created
	s := dispatch(t, ed, flowboard.SelectNode{ID: id})

	form := *s.NodeForm
	form.BackgroundColor = "not-a-color"
	dispatch(t, ed, flowboard.StageNodeForm{Form: form})

	s, err := ed.Dispatch(context.Background(), flowboard.ApplyPanel{})
	var verr *flowboard.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "backgroundColor", verr.Fields[0].Field)
	assert.Equal(t, "not-a-color", s.NodeForm.BackgroundColor, "staged edits are kept after a failed apply")
	assert.Equal(t, flowboard.DefaultBackground(flowboard.NodeDefault), s.Nodes[0].Data.BackgroundColor)
}

func TestEdgePanelApply(t *testing.T) {
	ed := newEditor(t)
	a := dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeInput}).Created
	b := dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeOutput}).Created
	e := dispatch(t, ed, flowboard.Connect{Connection: flowboard.Connection{Source: a, Target: b}}).Created

	s := dispatch(t, ed, flowboard.SelectEdge{ID: e})
	form := *s.EdgeForm
	assert.Equal(t, flowboard.ArrowNone, form.Arrow)

	form.Arrow = flowboard.ArrowBidirectional
	form.Stroke = "#EF4444"
	form.Type = flowboard.EdgeStep
	form.Animated = true
	dispatch(t, ed, flowboard.StageEdgeForm{Form: form})
	s = dispatch(t, ed, flowboard.ApplyPanel{})

	edge := s.Edges[0]
	assert.Equal(t, flowboard.EdgeStep, edge.Type)
	assert.True(t, edge.Animated)
	require.NotNil(t, edge.MarkerEnd)
	require.NotNil(t, edge.MarkerStart)
	assert.Equal(t, "#EF4444", edge.MarkerEnd.Color)
	assert.Equal(t, flowboard.ArrowBidirectional, s.EdgeForm.Arrow)
}

func TestPanelCommandsNeedSelection(t *testing.T) {
	ed := newEditor(t)
	for _, cmd := range []flowboard.Command{
		flowboard.ApplyPanel{},
		flowboard.ResetPanel{},
		flowboard.StageNodeForm{},
		flowboard.StageEdgeForm{},
	} {
		_, err := ed.Dispatch(context.Background(), cmd)
		assert.ErrorIs(t, err, flowboard.ErrNoSelection, cmd.Name())
	}
}

func TestClosePanel(t *testing.T) {
	ed := newEditor(t)
	id := dispatch(t, ed, flowboard.CreateNode{}).Created
	dispatch(t, ed, flowboard.SelectNode{ID: id})

	s := dispatch(t, ed, flowboard.ClosePanel{})
	assert.Equal(t, id, s.Selection.NodeID)
	assert.Equal(t, flowboard.PanelHidden, s.Selection.Panel)
	assert.True(t, s.Nodes[0].Selected)
}

func TestObserversSeeEverySnapshotInOrder(t *testing.T) {
	var versions []uint64
	ed := newEditor(t, flowboard.WithObserver(flowboard.ObserverFunc(func(_ context.Context, s flowboard.Snapshot) {
		versions = append(versions, s.Version)
	})))

	var late int
	unsubscribe := ed.Subscribe(flowboard.ObserverFunc(func(context.Context, flowboard.Snapshot) { late++ }))

	dispatch(t, ed, flowboard.CreateNode{})
	dispatch(t, ed, flowboard.CreateNode{})
	_, err := ed.Dispatch(context.Background(), flowboard.DeleteNode{ID: "missing"})
	require.Error(t, err)
	unsubscribe()
	dispatch(t, ed, flowboard.ClearSelection{})

	assert.Equal(t, []uint64{1, 2, 3}, versions)
	assert.Equal(t, 2, late)
}

func TestDispatchHookSeesFailures(t *testing.T) {
	got := map[string]int{}
	ed := newEditor(t, flowboard.WithDispatchHook(func(cmd string, err error) {
		if err != nil {
			cmd += ":err"
		}
		got[cmd]++
	}))
	dispatch(t, ed, flowboard.CreateNode{})
	_, _ = ed.Dispatch(context.Background(), flowboard.DeleteEdge{ID: "x"})

	assert.Equal(t, map[string]int{"create_node": 1, "delete_edge:err": 1}, got)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	ed := newEditor(t, flowboard.WithName("Demo"))
	a := dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeInput}).Created
	b := dispatch(t, ed, flowboard.CreateNode{Type: flowboard.NodeOutput}).Created
	s := dispatch(t, ed, flowboard.Connect{Connection: flowboard.Connection{Source: a, Target: b}})
	assert.True(t, s.Dirty)

	require.NoError(t, ed.Save(ctx, store))
	assert.False(t, ed.Snapshot().Dirty)

	again := flowboard.NewEditor("test")
	require.NoError(t, again.Load(ctx, store))
	assert.True(t, ed.Graph().Equal(again.Graph()))
	assert.Equal(t, "Demo", again.Snapshot().Name)
	assert.False(t, again.Snapshot().Dirty)

	missing := flowboard.NewEditor("nothing-here")
	require.NoError(t, missing.Load(ctx, store))
	assert.Empty(t, missing.Snapshot().Nodes)
}

// heldStore parks every SaveDiagram until the test releases it.
type heldStore struct {
	*memory.MemStore
	entered chan int
	release chan struct{}
}

func (s *heldStore) SaveDiagram(ctx context.Context, d *flowboard.Diagram) error {
	s.entered <- len(d.Nodes)
	<-s.release
	return s.MemStore.SaveDiagram(ctx, d)
}

func TestConcurrentSavesRunOneAtATime(t *testing.T) {
	ctx := context.Background()
	store := &heldStore{MemStore: memory.New(), entered: make(chan int), release: make(chan struct{})}
	ed := newEditor(t)
	dispatch(t, ed, flowboard.AddNode{Node: flowboard.NewNode("a", flowboard.NodeInput, flowboard.Position{})})

	errs := make(chan error, 2)
	go func() { errs <- ed.Save(ctx, store) }()
	assert.Equal(t, 1, <-store.entered)

	dispatch(t, ed, flowboard.AddNode{Node: flowboard.NewNode("b", flowboard.NodeOutput, flowboard.Position{})})
	go func() { errs <- ed.Save(ctx, store) }()

	select {
	case n := <-store.entered:
		t.Fatalf("second save reached the store with %d nodes while the first was in flight", n)
	case <-time.After(50 * time.Millisecond):
	}

	store.release <- struct{}{}
	assert.Equal(t, 2, <-store.entered)
	store.release <- struct{}{}
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	got, err := store.MemStore.GetDiagram(ctx, "test")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Nodes, 2)
	assert.False(t, ed.Snapshot().Dirty)
}

func ptr[T any](v T) *T { return &v }
