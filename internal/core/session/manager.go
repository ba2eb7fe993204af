// Package session owns the mapping from remote identity to Peer Path
// Manager instance: the piece of the node that decides when a new Peer is
// worth constructing and hands every subsequent one back out of the
// bounded registry (spec §1, §3's "Peer" data model, instantiated per
// remote identity).
package session

import (
	"fmt"
	"sync"

	"github.com/quorumnet/overlay/internal/core/identity"
	"github.com/quorumnet/overlay/internal/core/peer"
	"github.com/quorumnet/overlay/internal/core/topology"
	"github.com/quorumnet/overlay/pkg/lib/log"
)

var logger = log.Logger("core/session")

// Manager gets-or-creates the Peer for a remote identity, wiring in every
// optional collaborator the process was configured with.
type Manager struct {
	local         identity.Identity
	clock         peer.Clock
	node          peer.Node
	topology      *topology.Registry
	selfAwareness peer.SelfAwareness
	cluster       peer.Cluster // nil when clustering is disabled
	metrics       *peer.Metrics

	mu sync.Mutex
}

// New builds a Manager. cluster may be nil.
func New(local identity.Identity, clock peer.Clock, node peer.Node, reg *topology.Registry, sa peer.SelfAwareness, cluster peer.Cluster, metrics *peer.Metrics) *Manager {
	return &Manager{
		local:         local,
		clock:         clock,
		node:          node,
		topology:      reg,
		selfAwareness: sa,
		cluster:       cluster,
		metrics:       metrics,
	}
}

// GetOrCreate returns the resident Peer for remote's identity, constructing
// and registering one on first contact.
func (m *Manager) GetOrCreate(remote identity.Identity) (*peer.Peer, error) {
	id := remote.PeerID()
	if p, ok := m.topology.Get(id); ok {
		return p, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.topology.Get(id); ok {
		return p, nil
	}

	opts := []peer.Option{peer.WithMetrics(m.metrics)}
	if m.cluster != nil {
		opts = append(opts, peer.WithCluster(m.cluster))
	}

	p, err := peer.NewPeer(m.local, remote, m.clock, m.node, m.topology, m.selfAwareness, opts...)
	if err != nil {
		return nil, fmt.Errorf("construct peer %s: %w", id.ShortString(), err)
	}

	m.topology.Put(id, p)
	logger.Info("peer session established", "peer", id.ShortString())
	return p, nil
}
