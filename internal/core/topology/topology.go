// Package topology tracks the set of remote peers this node currently
// maintains a Peer Path Manager for.
//
// The registry itself has no notion of world descriptors or membership
// policy; it is a bounded, concurrency-safe lookup from identity to Peer,
// sized so that a churn-heavy overlay (many short-lived peers) cannot grow
// the resident set without bound. Eviction uses an ARC cache rather than a
// plain LRU so that a peer with a long history of repeat contact is not
// pushed out by a burst of one-off lookups (github.com/hashicorp/golang-lru).
package topology

import (
	"sync"

	arc "github.com/hashicorp/golang-lru/arc/v2"

	"github.com/quorumnet/overlay/internal/core/peer"
	"github.com/quorumnet/overlay/pkg/lib/log"
	"github.com/quorumnet/overlay/pkg/types"
)

var logger = log.Logger("core/topology")

// DefaultCapacity bounds the number of resident Peer entries.
const DefaultCapacity = 4096

// Registry is the bounded peer table. It implements peer.Registry so the
// maintenance runner can sweep every resident Peer.
type Registry struct {
	mu       sync.RWMutex
	cache    *arc.ARCCache[types.PeerID, *peer.Peer]
	worldID  uint64
	worldTS  uint64
}

// New builds a Registry with the given capacity. capacity <= 0 selects
// DefaultCapacity.
func New(capacity int) (*Registry, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := arc.NewARC[types.PeerID, *peer.Peer](capacity)
	if err != nil {
		return nil, err
	}
	return &Registry{cache: cache}, nil
}

// Get returns the resident Peer for id, if any.
func (r *Registry) Get(id types.PeerID) (*peer.Peer, bool) {
	return r.cache.Get(id)
}

// Put adds or replaces the resident Peer for id.
func (r *Registry) Put(id types.PeerID, p *peer.Peer) {
	r.cache.Add(id, p)
	logger.Debug("peer registered", "peer", id.ShortString())
}

// Remove evicts id from the registry, if present.
func (r *Registry) Remove(id types.PeerID) {
	r.cache.Remove(id)
}

// Peers returns every resident Peer, satisfying peer.Registry for the
// maintenance runner's periodic sweep.
func (r *Registry) Peers() []*peer.Peer {
	keys := r.cache.Keys()
	out := make([]*peer.Peer, 0, len(keys))
	for _, k := range keys {
		if p, ok := r.cache.Get(k); ok {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of resident peers.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// SetWorld records the topology descriptor served to peers via HELLO,
// satisfying peer.Topology.
func (r *Registry) SetWorld(id, timestamp uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.worldID = id
	r.worldTS = timestamp
}

// WorldID implements peer.Topology.
func (r *Registry) WorldID() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.worldID
}

// WorldTimestamp implements peer.Topology.
func (r *Registry) WorldTimestamp() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.worldTS
}
