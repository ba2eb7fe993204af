package peer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableInsertAppendsUntilFull(t *testing.T) {
	var tbl pathTable
	for i := 0; i < MaxPaths; i++ {
		slot := tbl.insert(newFakePath("203.0.113.1", uint16(9000+i)), uint64(i), false)
		assert.Equal(t, i, slot)
	}
	assert.Equal(t, MaxPaths, tbl.numPaths)
}

func TestTableFindByAddress(t *testing.T) {
	var tbl pathTable
	pA := newFakePath("203.0.113.1", 9000)
	pB := newFakePath("203.0.113.2", 9001)
	tbl.insert(pA, 0, false)
	tbl.insert(pB, 0, false)

	require.Equal(t, 0, tbl.findByAddress(pA.Address()))
	require.Equal(t, 1, tbl.findByAddress(pB.Address()))
	assert.Equal(t, -1, tbl.findByAddress(newFakePath("203.0.113.3", 9002).Address()))
}

// TestTableEvictionPrefersSameFamily is seed scenario 3: with the table
// full, inserting a fresh path evicts the worst-scoring slot of the same
// address family, leaving other families' slots untouched even if they
// score worse overall. Path score depends only on LastReceive/suboptimal,
// not on the fake Path's own Alive() flag, so timestamps drive aliveness
// here (spec §4.2).
func TestTableEvictionPrefersSameFamily(t *testing.T) {
	const now = uint64(1_000_000)
	var tbl pathTable

	// One v6 slot, scored terribly (stale far outside PathAliveWindow) --
	// would be the global worst if family were ignored.
	v6Dead := newFakePath("2001:db8::1", 9000)
	tbl.insert(v6Dead, 0, false)

	// Fill the rest with v4 slots: one fresh+alive, one stale+dead.
	v4Alive := newFakePath("203.0.113.1", 9001)
	tbl.insert(v4Alive, now, false)

	v4Dead := newFakePath("203.0.113.2", 9002)
	tbl.insert(v4Dead, 0, false)

	for tbl.numPaths < MaxPaths {
		p := newFakePath("203.0.113.9", uint16(9100+tbl.numPaths))
		tbl.insert(p, now-1000, false)
	}

	fresh := newFakePath("203.0.113.50", 9999)
	slot := tbl.insert(fresh, now, false)

	assert.Equal(t, 2, slot, "the worst-scoring v4 slot should be evicted, not the v6 slot")
	assert.True(t, tbl.entries[0].Path == Path(v6Dead), "the only v6 slot must survive a v4 insertion")
	assert.True(t, tbl.entries[slot].Path == Path(fresh))
}

// TestTableEvictionFallsBackToWorstOverallWhenNoSameFamilyMatch covers the
// fallback branch of worstSlot: when the table is full and none of its
// entries share the incoming path's address family, eviction falls back to
// the worst-scoring entry across every family rather than refusing to
// evict (spec §9 open question 2).
func TestTableEvictionFallsBackToWorstOverallWhenNoSameFamilyMatch(t *testing.T) {
	const now = uint64(1_000_000)
	var tbl pathTable

	// Fill every slot with v4 paths, one of them scored far worse than the
	// rest so the fallback has an unambiguous target.
	var worst *fakePath
	for i := 0; i < MaxPaths; i++ {
		p := newFakePath("203.0.113.1", uint16(9000+i))
		last := now
		if i == 3 {
			last = 0
			worst = p
		}
		tbl.insert(p, last, false)
	}
	require.NotNil(t, worst)

	fresh := newFakePath("2001:db8::1", 9999)
	slot := tbl.insert(fresh, now, false)

	assert.Equal(t, 3, slot, "no v6 slot exists, so the worst-scoring v4 slot must be evicted")
	assert.True(t, tbl.entries[slot].Path == Path(fresh))
}

func TestTableRemoveIfCompactsAndClears(t *testing.T) {
	var tbl pathTable
	pA := newFakePath("203.0.113.1", 9000)
	pB := newFakePath("203.0.113.2", 9001)
	pC := newFakePath("203.0.113.3", 9002)
	tbl.insert(pA, 0, false)
	tbl.insert(pB, 0, false)
	tbl.insert(pC, 0, false)

	removed := tbl.removeIf(func(e PathEntry) bool {
		return e.Path.Address().Equal(pB.Address())
	})

	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, tbl.numPaths)
	assert.True(t, tbl.entries[0].Path == Path(pA))
	assert.True(t, tbl.entries[1].Path == Path(pC))
	assert.Nil(t, tbl.entries[2].Path, "trailing slot must be cleared")
}

func TestTableRemoveIfNoMatches(t *testing.T) {
	var tbl pathTable
	tbl.insert(newFakePath("203.0.113.1", 9000), 0, false)
	removed := tbl.removeIf(func(PathEntry) bool { return false })
	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, tbl.numPaths)
}
