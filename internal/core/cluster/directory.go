package cluster

import (
	"sync"

	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/pkg/types"
)

// StaticDirectory is an in-process MemberDirectory: a map of remote to
// best-known ingress, updated by whatever transport carries cross-member
// gossip (out of scope here). It exists so the Router has a usable
// collaborator without requiring a full cluster transport to exercise it.
type StaticDirectory struct {
	mu      sync.RWMutex
	best    map[types.PeerID]endpoint.Endpoint
	onAnnounce func(types.PeerID)
}

// NewStaticDirectory builds an empty StaticDirectory. onAnnounce, if
// non-nil, is invoked whenever Announce is called (e.g. to fan the
// announcement out over a gossip transport).
func NewStaticDirectory(onAnnounce func(types.PeerID)) *StaticDirectory {
	return &StaticDirectory{
		best:       make(map[types.PeerID]endpoint.Endpoint),
		onAnnounce: onAnnounce,
	}
}

// SetBestIngress records the best known ingress for remote, as learned
// from cluster gossip.
func (d *StaticDirectory) SetBestIngress(remote types.PeerID, ep endpoint.Endpoint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.best[remote] = ep
}

// BestIngress implements MemberDirectory.
func (d *StaticDirectory) BestIngress(remote types.PeerID) (endpoint.Endpoint, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ep, ok := d.best[remote]
	return ep, ok
}

// Announce implements MemberDirectory.
func (d *StaticDirectory) Announce(remote types.PeerID) {
	if d.onAnnounce != nil {
		d.onAnnounce(remote)
	}
}
