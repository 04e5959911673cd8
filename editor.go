package flowboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Snapshot is what a renderer draws after a command: the graph with the
// selected flag synchronised onto the matching entity, the selection, and
// the staged panel form.
type Snapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Version   uint64    `json:"version"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	Selection Selection `json:"selection"`
	NodeForm  *NodeForm `json:"nodeForm,omitempty"`
	EdgeForm  *EdgeForm `json:"edgeForm,omitempty"`
	Dirty     bool      `json:"dirty"`
	// Created is the id of the node or edge the command added, if any.
	Created string `json:"created,omitempty"`
}

// Observer is told about every snapshot a successful command produces,
// in dispatch order. Observers run while the editor is locked and must
// not call back into it.
type Observer interface {
	Observe(ctx context.Context, s Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, s Snapshot)

func (f ObserverFunc) Observe(ctx context.Context, s Snapshot) { f(ctx, s) }

// DispatchHook is called after every command, successful or not.
type DispatchHook func(command string, err error)

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger commands are logged to.
func WithLogger(l *slog.Logger) Option { return func(e *Editor) { e.log = l } }

// WithClock replaces time.Now for id generation.
func WithClock(now func() time.Time) Option { return func(e *Editor) { e.st.now = now } }

// WithName sets the diagram's display name.
func WithName(name string) Option { return func(e *Editor) { e.name = name } }

// WithGraph seeds the editor with g.
func WithGraph(g Graph) Option {
	return func(e *Editor) {
		e.st.graph = g
		e.saved = g
	}
}

// WithObserver subscribes o for the editor's lifetime.
func WithObserver(o Observer) Option {
	return func(e *Editor) { e.observers = append(e.observers, &subscription{o: o}) }
}

// WithDispatchHook registers h.
func WithDispatchHook(h DispatchHook) Option {
	return func(e *Editor) { e.hooks = append(e.hooks, h) }
}

type subscription struct{ o Observer }

// Editor owns one diagram's application state. State changes only through
// Dispatch; commands run one at a time in the order they arrive.
type Editor struct {
	mu        sync.Mutex
	saveMu    sync.Mutex // held for the whole of Save
	id        string
	name      string
	st        state
	version   uint64
	saved     Graph
	observers []*subscription
	hooks     []DispatchHook
	log       *slog.Logger
}

// NewEditor creates an editor for diagram id.
func NewEditor(id string, opts ...Option) *Editor {
	e := &Editor{id: id, log: slog.Default()}
	e.st.now = time.Now
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID returns the diagram id.
func (e *Editor) ID() string { return e.id }

// Dispatch runs cmd against the current state. On error the state is
// unchanged and observers are not notified.
func (e *Editor) Dispatch(ctx context.Context, cmd Command) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.st
	created, err := cmd.apply(&next)
	for _, h := range e.hooks {
		h(cmd.Name(), err)
	}
	if err != nil {
		e.log.DebugContext(ctx, "command rejected", "diagram", e.id, "command", cmd.Name(), "error", err)
		return e.snapshot(""), err
	}
	next.sync()
	e.st = next
	e.version++
	s := e.snapshot(created)
	e.log.DebugContext(ctx, "command applied", "diagram", e.id, "command", cmd.Name(), "version", e.version)
	for _, sub := range e.observers {
		sub.o.Observe(ctx, s)
	}
	return s, nil
}

// Snapshot returns the current state.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot("")
}

// Graph returns the current graph.
func (e *Editor) Graph() Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.graph
}

// Subscribe adds o and returns a function that removes it again.
func (e *Editor) Subscribe(o Observer) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	sub := &subscription{o: o}
	e.observers = append(e.observers, sub)
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, s := range e.observers {
			if s == sub {
				e.observers = append(e.observers[:i:i], e.observers[i+1:]...)
				return
			}
		}
	}
}

// Load replaces the editor's graph with the diagram stored under its id.
// A missing diagram leaves an empty graph. The selection is cleared.
func (e *Editor) Load(ctx context.Context, store Store) error {
	d, err := store.GetDiagram(ctx, e.id)
	if err != nil {
		return fmt.Errorf("flowboard: load %s: %w", e.id, err)
	}
	var g Graph
	if d != nil {
		if g, err = FromDiagram(d); err != nil {
			return fmt.Errorf("flowboard: load %s: %w", e.id, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if d != nil && d.Name != "" {
		e.name = d.Name
	}
	e.st = state{graph: g, now: e.st.now}
	e.saved = g
	e.version++
	e.log.InfoContext(ctx, "diagram loaded", "diagram", e.id, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return nil
}

// Save writes the current graph to store. Concurrent calls run one at a
// time, each writing the graph current when it starts.
func (e *Editor) Save(ctx context.Context, store Store) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	g := e.st.graph
	d := g.Diagram(e.id, e.name)
	e.mu.Unlock()

	if err := store.SaveDiagram(ctx, d); err != nil {
		return fmt.Errorf("flowboard: save %s: %w", e.id, err)
	}

	e.mu.Lock()
	e.saved = g
	e.mu.Unlock()
	e.log.InfoContext(ctx, "diagram saved", "diagram", e.id, "nodes", len(d.Nodes), "edges", len(d.Edges))
	return nil
}

func (e *Editor) snapshot(created string) Snapshot {
	s := Snapshot{
		ID:        e.id,
		Name:      e.name,
		Version:   e.version,
		Nodes:     make([]Node, len(e.st.graph.Nodes)),
		Edges:     make([]Edge, len(e.st.graph.Edges)),
		Selection: e.st.sel,
		Dirty:     !e.st.graph.Equal(e.saved),
		Created:   created,
	}
	for i, n := range e.st.graph.Nodes {
		n = n.clone()
		n.Selected = n.ID == e.st.sel.NodeID
		s.Nodes[i] = n
	}
	for i, ed := range e.st.graph.Edges {
		ed = ed.clone()
		ed.Selected = ed.ID == e.st.sel.EdgeID
		s.Edges[i] = ed
	}
	if e.st.nodeForm != nil {
		f := *e.st.nodeForm
		s.NodeForm = &f
	}
	if e.st.edgeForm != nil {
		f := *e.st.edgeForm
		s.EdgeForm = &f
	}
	return s
}

// state is the editor's working copy. Commands mutate a copy of it; the
// graph inside is itself immutable so copying is shallow.
type state struct {
	graph    Graph
	sel      Selection
	nodeForm *NodeForm
	edgeForm *EdgeForm
	// loadedNode and loadedEdge are what the staged forms were filled from.
	loadedNode *Node
	loadedEdge *Edge
	now        func() time.Time
}

// sync keeps the selection and the staged forms consistent with the graph
// after a command: a selection pointing at a deleted entity is dropped,
// and a form is refilled whenever the selected entity changed underneath
// it, including when the selection itself moved.
func (s *state) sync() {
	s.sel = s.sel.Prune(s.graph)

	if s.sel.NodeID == "" {
		s.nodeForm, s.loadedNode = nil, nil
	} else if n, _ := s.graph.Node(s.sel.NodeID); s.loadedNode == nil || !nodeEqual(n, *s.loadedNode) {
		s.fillNodeForm(n)
	}

	if s.sel.EdgeID == "" {
		s.edgeForm, s.loadedEdge = nil, nil
	} else if ed, _ := s.graph.Edge(s.sel.EdgeID); s.loadedEdge == nil || !edgeEqual(ed, *s.loadedEdge) {
		s.fillEdgeForm(ed)
	}
}

func (s *state) fillNodeForm(n Node) {
	f := LoadNodeForm(n)
	s.nodeForm, s.loadedNode = &f, &n
}

func (s *state) fillEdgeForm(e Edge) {
	f := LoadEdgeForm(e)
	s.edgeForm, s.loadedEdge = &f, &e
}
