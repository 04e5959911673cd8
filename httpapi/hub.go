package httpapi

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/meikuraledutech/flowboard"
	"github.com/meikuraledutech/flowboard/metrics"
)

// Hub keeps one editor per open diagram. Editors are created on first
// use and filled from the store.
type Hub struct {
	mu      sync.Mutex
	editors map[string]*flowboard.Editor
	store   flowboard.Store
	opts    []flowboard.Option
	metrics *metrics.Recorder
	log     *slog.Logger
}

// NewHub creates a Hub. opts are applied to every editor it creates.
func NewHub(store flowboard.Store, log *slog.Logger, rec *metrics.Recorder, opts ...flowboard.Option) *Hub {
	return &Hub{
		editors: make(map[string]*flowboard.Editor),
		store:   store,
		opts:    opts,
		metrics: rec,
		log:     log,
	}
}

// Open returns the editor for id, loading it from the store if needed.
// The store is read without holding the hub lock; when two callers race
// to open the same id, the first editor inserted wins.
func (h *Hub) Open(ctx context.Context, id string) (*flowboard.Editor, error) {
	h.mu.Lock()
	ed, ok := h.editors[id]
	h.mu.Unlock()
	if ok {
		return ed, nil
	}

	id = strings.Clone(id)
	opts := append([]flowboard.Option{flowboard.WithLogger(h.log)}, h.opts...)
	if h.metrics != nil {
		opts = append(opts, flowboard.WithDispatchHook(h.metrics.Hook))
	}
	ed = flowboard.NewEditor(id, opts...)
	if err := ed.Load(ctx, h.store); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.editors[id]; ok {
		return existing, nil
	}
	h.editors[id] = ed
	if h.metrics != nil {
		h.metrics.EditorOpened()
	}
	return ed, nil
}

// Forget drops the in-memory editor for id, discarding unsaved changes.
func (h *Hub) Forget(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.editors[id]; !ok {
		return
	}
	delete(h.editors, id)
	if h.metrics != nil {
		h.metrics.EditorClosed()
	}
}

// Len returns the number of open editors.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.editors)
}

// SaveAll writes every dirty editor to the store. It is used on shutdown.
func (h *Hub) SaveAll(ctx context.Context) error {
	h.mu.Lock()
	editors := make([]*flowboard.Editor, 0, len(h.editors))
	for _, ed := range h.editors {
		editors = append(editors, ed)
	}
	h.mu.Unlock()

	var firstErr error
	for _, ed := range editors {
		if !ed.Snapshot().Dirty {
			continue
		}
		err := ed.Save(ctx, h.store)
		if h.metrics != nil {
			h.metrics.Saved(err)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
