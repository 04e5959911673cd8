package httpapi

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flowboard"
	"github.com/meikuraledutech/flowboard/memory"
)

// gatedStore blocks reads of one diagram until gate is closed.
type gatedStore struct {
	*memory.MemStore
	slowID  string
	entered chan struct{}
	gate    chan struct{}
}

func (s *gatedStore) GetDiagram(ctx context.Context, id string) (*flowboard.Diagram, error) {
	if id == s.slowID {
		s.entered <- struct{}{}
		<-s.gate
	}
	return s.MemStore.GetDiagram(ctx, id)
}

func TestHubOpenDoesNotBlockOnSlowLoad(t *testing.T) {
	store := &gatedStore{MemStore: memory.New(), slowID: "slow", entered: make(chan struct{}), gate: make(chan struct{})}
	hub := NewHub(store, slog.Default(), nil)
	ctx := context.Background()

	slow := make(chan error, 1)
	go func() {
		_, err := hub.Open(ctx, "slow")
		slow <- err
	}()
	<-store.entered

	fast := make(chan error, 1)
	go func() {
		_, err := hub.Open(ctx, "fast")
		fast <- err
	}()
	select {
	case err := <-fast:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("opening another diagram waited on a slow load")
	}

	close(store.gate)
	require.NoError(t, <-slow)
	assert.Equal(t, 2, hub.Len())
}

func TestHubConcurrentOpenSharesEditor(t *testing.T) {
	hub := NewHub(memory.New(), slog.Default(), nil)
	ctx := context.Background()

	const n = 16
	editors := make([]*flowboard.Editor, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ed, err := hub.Open(ctx, "shared")
			assert.NoError(t, err)
			editors[i] = ed
		}()
	}
	wg.Wait()

	for _, ed := range editors {
		assert.Same(t, editors[0], ed)
	}
	assert.Equal(t, 1, hub.Len())
}
