package cluster

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/pkg/types"
)

func testPeerID(b byte) types.PeerID {
	var id types.PeerID
	id[0] = b
	return id
}

func TestFindBetterEndpointReturnsFalseWhenNoneKnown(t *testing.T) {
	dir := NewStaticDirectory(nil)
	r, err := New(dir, 0, 0)
	require.NoError(t, err)

	_, ok := r.FindBetterEndpoint(testPeerID(1), endpoint.Endpoint{}, false)
	assert.False(t, ok)
}

func TestFindBetterEndpointSkipsWhenAlreadyCurrent(t *testing.T) {
	dir := NewStaticDirectory(nil)
	ep := endpoint.New(net.ParseIP("203.0.113.1"), 9000)
	dir.SetBestIngress(testPeerID(1), ep)
	r, err := New(dir, 0, 0)
	require.NoError(t, err)

	_, ok := r.FindBetterEndpoint(testPeerID(1), ep, false)
	assert.False(t, ok)
}

func TestFindBetterEndpointHonorsCooldown(t *testing.T) {
	dir := NewStaticDirectory(nil)
	better := endpoint.New(net.ParseIP("203.0.113.2"), 9001)
	dir.SetBestIngress(testPeerID(1), better)
	r, err := New(dir, 0, time.Minute)
	require.NoError(t, err)

	current := endpoint.New(net.ParseIP("203.0.113.1"), 9000)
	got, ok := r.FindBetterEndpoint(testPeerID(1), current, false)
	require.True(t, ok)
	assert.True(t, got.Equal(better))

	_, ok = r.FindBetterEndpoint(testPeerID(1), current, false)
	assert.False(t, ok, "a second redirect within the cooldown window must be suppressed")
}

func TestBroadcastHavePeerInvokesAnnounce(t *testing.T) {
	var announced types.PeerID
	dir := NewStaticDirectory(func(id types.PeerID) { announced = id })
	r, err := New(dir, 0, 0)
	require.NoError(t, err)

	r.BroadcastHavePeer(testPeerID(9))
	assert.Equal(t, testPeerID(9), announced)
}
