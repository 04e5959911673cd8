package flowboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSidebarPositionInDropArea(t *testing.T) {
	seen := map[Position]bool{}
	for range 500 {
		p := SidebarPosition()
		assert.GreaterOrEqual(t, p.X, 100.0)
		assert.Less(t, p.X, 500.0)
		assert.GreaterOrEqual(t, p.Y, 100.0)
		assert.Less(t, p.Y, 400.0)
		seen[p] = true
	}
	assert.Greater(t, len(seen), 1, "placements should vary")
}
