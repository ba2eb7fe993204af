package network

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumnet/overlay/internal/core/clock"
	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/internal/core/identity"
	"github.com/quorumnet/overlay/internal/core/peer"
)

func TestEncodeMulticastLike(t *testing.T) {
	g := MulticastGroup{MAC: [6]byte{1, 2, 3, 4, 5, 6}, ADI: 0xdeadbeef}
	buf := encodeMulticastLike(0x0102030405060708, g)
	assert.Len(t, buf, 18)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf[0:8])
	assert.Equal(t, g.MAC[:], buf[8:14])
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, buf[14:18])
}

func TestSetGroupsReplaces(t *testing.T) {
	m := NewMembership(1, []MulticastGroup{{MAC: [6]byte{1}}})
	m.SetGroups([]MulticastGroup{{MAC: [6]byte{2}}, {MAC: [6]byte{3}}})
	assert.Len(t, m.groups, 2)
}

// stubPath satisfies peer.Path minimally so TryAnnounceMulticastGroupsTo
// can be exercised end-to-end through a real *peer.Peer.
type stubPath struct {
	addr endpoint.Endpoint
	sent int
}

func (s *stubPath) Address() endpoint.Endpoint      { return s.addr }
func (s *stubPath) LocalAddress() endpoint.Endpoint { return s.addr }
func (s *stubPath) Alive(uint64) bool               { return true }
func (s *stubPath) NeedsHeartbeat(uint64) bool      { return false }
func (s *stubPath) Send(context.Context, []byte, uint64) bool {
	s.sent++
	return true
}

type stubNode struct{}

func (stubNode) PRNG() uint64                                                  { return 1 }
func (stubNode) PutPacket(context.Context, endpoint.Endpoint, endpoint.Endpoint, []byte) {}
func (stubNode) DirectPaths() []endpoint.Endpoint                              { return nil }
func (stubNode) AllNetworks() []peer.Network                                   { return nil }
func (stubNode) ShouldUsePathForTraffic(endpoint.Endpoint, endpoint.Endpoint) bool {
	return true
}

type stubTopology struct{}

func (stubTopology) WorldID() uint64        { return 0 }
func (stubTopology) WorldTimestamp() uint64 { return 0 }

type stubSelfAwareness struct{}

func (stubSelfAwareness) GetSymmetricNatPredictions() []endpoint.Endpoint { return nil }

func TestTryAnnounceMulticastGroupsToSendsOverBestPath(t *testing.T) {
	local, err := identity.Generate()
	require.NoError(t, err)
	remote, err := identity.Generate()
	require.NoError(t, err)

	p, err := peer.NewPeer(local, remote, clock.New(), stubNode{}, stubTopology{}, stubSelfAwareness{})
	require.NoError(t, err)

	path := &stubPath{addr: endpoint.New(net.ParseIP("203.0.113.1"), 9000)}
	p.Received(context.Background(), path, 0, 1, peer.VerbOK, 0, peer.VerbOther, false)
	require.Equal(t, 1, p.NumPaths())

	m := NewMembership(1, []MulticastGroup{{MAC: [6]byte{1, 2, 3, 4, 5, 6}}})
	m.TryAnnounceMulticastGroupsTo(context.Background(), p)

	assert.Equal(t, 1, path.sent)
}
