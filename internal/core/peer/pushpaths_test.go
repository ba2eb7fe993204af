package peer

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/internal/core/identity"
)

func newTestPeer(t *testing.T, clock Clock, node *fakeNode, sa *fakeSelfAwareness, opts ...Option) *Peer {
	t.Helper()
	local, err := identity.Generate()
	require.NoError(t, err)
	remote, err := identity.Generate()
	require.NoError(t, err)

	p, err := NewPeer(local, remote, clock, node, &fakeTopology{}, sa, opts...)
	require.NoError(t, err)
	return p
}

// TestPushDirectPathsRateLimit is seed scenario 6: two invocations close
// together yield exactly one push.
func TestPushDirectPathsRateLimit(t *testing.T) {
	node := &fakeNode{directPathAddrs: []endpoint.Endpoint{endpoint.New(net.ParseIP("203.0.113.5"), 9000)}}
	sa := &fakeSelfAwareness{}
	p := newTestPeer(t, mockNowClock(0), node, sa)

	path := newFakePath("198.51.100.1", 5000)
	ctx := context.Background()

	first := p.pushDirectPaths(ctx, path, 0)
	second := p.pushDirectPaths(ctx, path, 1)

	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, 1, path.sentCount())
}

func TestPushDirectPathsCollectsAndDeduplicates(t *testing.T) {
	direct := endpoint.New(net.ParseIP("203.0.113.5"), 9000)
	predicted := endpoint.New(net.ParseIP("203.0.113.6"), 9001)
	node := &fakeNode{directPathAddrs: []endpoint.Endpoint{direct}}
	sa := &fakeSelfAwareness{predictions: []endpoint.Endpoint{direct, predicted}}
	p := newTestPeer(t, mockNowClock(0), node, sa)

	path := newFakePath("198.51.100.1", 5000)
	ok := p.pushDirectPaths(context.Background(), path, 0)
	require.True(t, ok)
	require.Equal(t, 1, path.sentCount())

	records, err := DecodePushDirectPaths(path.sends[0])
	require.NoError(t, err)

	var addrs []endpoint.Endpoint
	for _, r := range records {
		addrs = append(addrs, r.Endpoint)
	}
	assert.Contains(t, addrs, direct)
	assert.Contains(t, addrs, predicted)
	assert.Len(t, addrs, 2, "the direct-path address duplicated by the predictor must not appear twice")
}

func TestPushDirectPathsNoCandidatesReturnsFalse(t *testing.T) {
	node := &fakeNode{}
	sa := &fakeSelfAwareness{}
	p := newTestPeer(t, mockNowClock(0), node, sa)

	ok := p.pushDirectPaths(context.Background(), newFakePath("198.51.100.1", 5000), 0)
	assert.False(t, ok)
}

func TestPushDirectPathsSkippedWhenClusterEnabled(t *testing.T) {
	node := &fakeNode{directPathAddrs: []endpoint.Endpoint{endpoint.New(net.ParseIP("203.0.113.5"), 9000)}}
	sa := &fakeSelfAwareness{}
	p := newTestPeer(t, mockNowClock(0), node, sa, WithCluster(&fakeCluster{}))

	ok := p.pushDirectPaths(context.Background(), newFakePath("198.51.100.1", 5000), 0)
	assert.False(t, ok, "cluster redirect supersedes direct-path push (spec §4.6)")
}
