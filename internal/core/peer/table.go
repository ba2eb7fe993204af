package peer

import (
	"math"

	"github.com/quorumnet/overlay/internal/core/endpoint"
)

// PathEntry is one live row of a Peer's path table (spec §3).
type PathEntry struct {
	Path                   Path
	LastReceive            uint64
	LocalClusterSuboptimal bool
}

// pathTable is the fixed-capacity path table (spec §4.1). It is not safe
// for concurrent use; callers (Peer) serialize access with their own
// mutex.
type pathTable struct {
	entries  [MaxPaths]PathEntry
	numPaths int
}

// findByAddress returns the index of the live entry whose Path address
// equals addr, or -1.
func (t *pathTable) findByAddress(addr endpoint.Endpoint) int {
	for i := 0; i < t.numPaths; i++ {
		if t.entries[i].Path.Address().Equal(addr) {
			return i
		}
	}
	return -1
}

// insert places path into the table, appending if there is room or else
// evicting the worst-scoring slot. It always writes the fresh entry to the
// slot it selects (spec §9 open question 1: the original's post-loop use
// of a stale index is a bug; the intended target is the slot chosen by the
// eviction search).
func (t *pathTable) insert(path Path, now uint64, suboptimal bool) int {
	var slot int
	if t.numPaths < MaxPaths {
		slot = t.numPaths
		t.numPaths++
	} else {
		slot = t.worstSlot(path, now)
	}

	t.entries[slot] = PathEntry{
		Path:                   path,
		LastReceive:            now,
		LocalClusterSuboptimal: suboptimal,
	}
	return slot
}

// worstSlot picks the slot to evict when the table is full: the
// worst-scoring entry of the same address family as newPath, or, failing
// that, the worst-scoring entry overall.
//
// The fallback loop seeds worstScore to math.MaxUint64 and slot to
// MaxPaths-1, then compares with strict '<'; the first entry it examines
// therefore replaces the seed unless its score is itself math.MaxUint64
// (spec §9 open question 2 — this is the original's behavior and is
// preserved intentionally, not a bug: if every score equals
// math.MaxUint64, the MaxPaths-1 seed still gives a same-family miss a
// definite eviction target).
func (t *pathTable) worstSlot(newPath Path, now uint64) int {
	family := newPath.Address().Family()

	sameFamilySlot := -1
	var sameFamilyWorst uint64 = math.MaxUint64
	for i := 0; i < t.numPaths; i++ {
		if t.entries[i].Path.Address().Family() == family {
			s := pathScore(t.entries[i], now)
			if s < sameFamilyWorst {
				sameFamilyWorst = s
				sameFamilySlot = i
			}
		}
	}
	if sameFamilySlot >= 0 {
		return sameFamilySlot
	}

	slot := MaxPaths - 1
	worstScore := uint64(math.MaxUint64)
	for i := 0; i < t.numPaths; i++ {
		s := pathScore(t.entries[i], now)
		if s < worstScore {
			worstScore = s
			slot = i
		}
	}
	return slot
}

// removeIf compacts the table in place, dropping every entry for which
// match returns true, and clearing trailing slots to release Path
// references. It returns the number of entries removed.
func (t *pathTable) removeIf(match func(PathEntry) bool) int {
	np := t.numPaths
	y := 0
	for x := 0; x < np; x++ {
		if match(t.entries[x]) {
			continue
		}
		if y != x {
			t.entries[y] = t.entries[x]
		}
		y++
	}
	removed := np - y
	t.numPaths = y
	for i := y; i < MaxPaths; i++ {
		t.entries[i] = PathEntry{}
	}
	return removed
}
