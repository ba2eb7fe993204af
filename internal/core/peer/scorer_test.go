package peer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreAliveDominatesDead(t *testing.T) {
	now := uint64(100_000)
	alive := PathEntry{LastReceive: now - 1000}
	dead := PathEntry{LastReceive: now - uint64(PathAliveWindow.Milliseconds()) - 1000}

	assert.Greater(t, pathScore(alive, now), pathScore(dead, now))
}

func TestScoreFreshnessAmongAlive(t *testing.T) {
	now := uint64(100_000)
	older := PathEntry{LastReceive: now - 500}
	newer := PathEntry{LastReceive: now - 100}

	assert.Greater(t, pathScore(newer, now), pathScore(older, now))
}

func TestScoreClusterOptimalPreferredAtEqualFreshness(t *testing.T) {
	now := uint64(100_000)
	optimal := PathEntry{LastReceive: now, LocalClusterSuboptimal: false}
	suboptimal := PathEntry{LastReceive: now, LocalClusterSuboptimal: true}

	assert.Greater(t, pathScore(optimal, now), pathScore(suboptimal, now))
}

func TestScoreFamilyNeutral(t *testing.T) {
	now := uint64(100_000)
	v4 := PathEntry{LastReceive: now}
	v6 := PathEntry{LastReceive: now}
	assert.Equal(t, pathScore(v4, now), pathScore(v6, now))
}

func TestIsAliveBoundary(t *testing.T) {
	now := uint64(100_000)
	window := uint64(PathAliveWindow.Milliseconds())
	assert.True(t, isAlive(now-window, now))
	assert.False(t, isAlive(now-window-1, now))
}
