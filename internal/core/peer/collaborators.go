package peer

import (
	"context"

	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/pkg/types"
)

// Clock is the monotonic millisecond time source every entry point reads
// exactly once and threads through (spec §5).
type Clock interface {
	NowMillis() uint64
}

// Path is a single transport-level channel to a remote endpoint. Path
// objects are shared: the same Path may back entries in more than one
// Peer's table, and its lifetime is not owned by any single PathEntry
// (spec §9, "Shared path handles").
type Path interface {
	// Address is the remote endpoint this Path reaches.
	Address() endpoint.Endpoint
	// LocalAddress is the local binding this Path sends from.
	LocalAddress() endpoint.Endpoint
	// Alive reports whether the path has seen traffic recently enough to
	// be usable right now.
	Alive(nowMillis uint64) bool
	// NeedsHeartbeat reports whether the NAT-keepalive window has elapsed
	// since the last send on this path.
	NeedsHeartbeat(nowMillis uint64) bool
	// Send transmits data over the path. A false result is a swallowed
	// transport failure, not an error (spec §7).
	Send(ctx context.Context, data []byte, nowMillis uint64) bool
}

// Node is the containing overlay node's world/topology/PRNG/transport
// facade, consumed opaquely (spec §1).
type Node interface {
	PRNG() uint64
	PutPacket(ctx context.Context, local, remote endpoint.Endpoint, data []byte)
	DirectPaths() []endpoint.Endpoint
	AllNetworks() []Network
	ShouldUsePathForTraffic(local, remote endpoint.Endpoint) bool
}

// Topology supplies the signed root-topology descriptor referenced by
// HELLO (spec §6).
type Topology interface {
	WorldID() uint64
	WorldTimestamp() uint64
}

// SelfAwareness predicts externally-visible addresses behind a
// symmetric NAT, used to seed direct-path pushes (spec §4.6).
type SelfAwareness interface {
	GetSymmetricNatPredictions() []endpoint.Endpoint
}

// Cluster is the optional cross-node ingress-redirection collaborator
// (spec §1, §4.3).
type Cluster interface {
	// FindBetterEndpoint reports a better ingress for remote than
	// current, if the cluster knows of one.
	FindBetterEndpoint(remote types.PeerID, current endpoint.Endpoint, preferOlder bool) (endpoint.Endpoint, bool)
	// BroadcastHavePeer announces that this node has an authenticated
	// path to remote, for the cluster's witness bookkeeping.
	BroadcastHavePeer(remote types.PeerID)
}

// Network is a member network capable of announcing multicast group
// membership to a peer (spec §4.3 step 5).
type Network interface {
	TryAnnounceMulticastGroupsTo(ctx context.Context, p *Peer)
}
