package session

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumnet/overlay/internal/core/clock"
	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/internal/core/identity"
	"github.com/quorumnet/overlay/internal/core/peer"
	"github.com/quorumnet/overlay/internal/core/topology"
)

type noopNode struct{}

func (noopNode) PRNG() uint64 { return 0 }
func (noopNode) PutPacket(context.Context, endpoint.Endpoint, endpoint.Endpoint, []byte) {}
func (noopNode) DirectPaths() []endpoint.Endpoint { return nil }
func (noopNode) AllNetworks() []peer.Network      { return nil }
func (noopNode) ShouldUsePathForTraffic(endpoint.Endpoint, endpoint.Endpoint) bool {
	return true
}

type noopSelfAwareness struct{}

func (noopSelfAwareness) GetSymmetricNatPredictions() []endpoint.Endpoint { return nil }

func TestGetOrCreateReturnsSameInstanceOnRepeat(t *testing.T) {
	local, err := identity.Generate()
	require.NoError(t, err)
	remote, err := identity.Generate()
	require.NoError(t, err)

	reg, err := topology.New(0)
	require.NoError(t, err)

	m := New(local, clock.New(), noopNode{}, reg, noopSelfAwareness{}, nil, peer.NewMetrics(prometheus.NewRegistry()))

	p1, err := m.GetOrCreate(remote)
	require.NoError(t, err)
	p2, err := m.GetOrCreate(remote)
	require.NoError(t, err)

	assert.Same(t, p1, p2)
	assert.Equal(t, 1, reg.Len())
}
