// Package cluster implements optional cross-node ingress redirection: when
// several node instances in a cluster share responsibility for the same
// overlay identity, this package tells a Peer Path Manager which sibling
// instance currently has the better (lower-latency, less-loaded) ingress
// for a given remote, and relays notice of newly authenticated remotes to
// the rest of the cluster.
//
// It satisfies peer.Cluster.
package cluster

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/pkg/lib/log"
	"github.com/quorumnet/overlay/pkg/types"
)

var logger = log.Logger("core/cluster")

// DefaultRedirectCooldownCacheSize bounds the number of remotes for which
// a redirect cooldown is tracked at once.
const DefaultRedirectCooldownCacheSize = 8192

// DefaultRedirectCooldown is the minimum interval between two redirects
// issued for the same remote, preventing a flapping cluster membership
// view from bouncing a peer between siblings on every packet.
const DefaultRedirectCooldown = 10 * time.Second

// MemberDirectory reports, for a given remote identity, whether some other
// cluster member currently has a better ingress path than current.
type MemberDirectory interface {
	// BestIngress returns the best known ingress endpoint for remote
	// across the cluster, if any member has reported one.
	BestIngress(remote types.PeerID) (endpoint.Endpoint, bool)
	// Announce tells the rest of the cluster that this instance has an
	// authenticated path to remote.
	Announce(remote types.PeerID)
}

// Router implements peer.Cluster on top of a MemberDirectory, adding a
// per-remote redirect cooldown so repeated FindBetterEndpoint calls from a
// single Peer.Received burst do not each trigger a new redirect wire
// message.
type Router struct {
	dir      MemberDirectory
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last *lru.Cache[types.PeerID, time.Time]
}

// New builds a Router. cooldownCacheSize <= 0 selects
// DefaultRedirectCooldownCacheSize; cooldown <= 0 selects
// DefaultRedirectCooldown.
func New(dir MemberDirectory, cooldownCacheSize int, cooldown time.Duration) (*Router, error) {
	if cooldownCacheSize <= 0 {
		cooldownCacheSize = DefaultRedirectCooldownCacheSize
	}
	if cooldown <= 0 {
		cooldown = DefaultRedirectCooldown
	}
	cache, err := lru.New[types.PeerID, time.Time](cooldownCacheSize)
	if err != nil {
		return nil, err
	}
	return &Router{
		dir:      dir,
		cooldown: cooldown,
		now:      time.Now,
		last:     cache,
	}, nil
}

// FindBetterEndpoint implements peer.Cluster. It withholds a redirect for
// the same remote more often than once per cooldown window, and never
// redirects a remote back to the endpoint it is already using.
func (r *Router) FindBetterEndpoint(remote types.PeerID, current endpoint.Endpoint, preferOlder bool) (endpoint.Endpoint, bool) {
	better, ok := r.dir.BestIngress(remote)
	if !ok || better.Equal(current) {
		return endpoint.Endpoint{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if last, ok := r.last.Get(remote); ok && now.Sub(last) < r.cooldown {
		return endpoint.Endpoint{}, false
	}
	r.last.Add(remote, now)
	logger.Debug("redirecting peer", "peer", remote.ShortString(), "to", better.String())
	return better, true
}

// BroadcastHavePeer implements peer.Cluster.
func (r *Router) BroadcastHavePeer(remote types.PeerID) {
	r.dir.Announce(remote)
}
