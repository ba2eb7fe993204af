package peer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestReceivedConcurrentDistinctAddressesRespectsMaxPaths is spec P9: under
// concurrent Received from N goroutines reporting N distinct addresses,
// the table settles at min(N, MaxPaths) entries and every surviving entry
// is a valid, distinct Path — Peer's own mutex is the only synchronization
// under test, so this exercises it directly with -race in mind.
func TestReceivedConcurrentDistinctAddressesRespectsMaxPaths(t *testing.T) {
	const n = 32
	node := &fakeNode{shouldUseTraffic: true}
	p := newTestPeer(t, mockNowClock(1_000_000), node, &fakeSelfAwareness{})

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			path := newFakePath(fmt.Sprintf("203.0.113.%d", i+1), uint16(9000+i))
			p.Received(context.Background(), path, 0, uint64(i), VerbOK, 0, VerbOther, false)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, MaxPaths, p.NumPaths())

	p.mu.Lock()
	defer p.mu.Unlock()
	seen := make(map[string]bool)
	for i := 0; i < p.paths.numPaths; i++ {
		entry := p.paths.entries[i]
		assert.NotNil(t, entry.Path, "every live slot must hold a Path")
		addr := entry.Path.Address().String()
		assert.False(t, seen[addr], "no address should occupy more than one slot")
		seen[addr] = true
	}
}
