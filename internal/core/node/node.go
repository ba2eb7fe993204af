// Package node assembles the collaborators every Peer Path Manager needs
// (PRNG, raw send, direct-path discovery, member-network announce, path
// admission policy) into the single peer.Node facade (spec §1's "Node").
package node

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/quorumnet/overlay/internal/core/directpaths"
	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/internal/core/network"
	"github.com/quorumnet/overlay/internal/core/peer"
	"github.com/quorumnet/overlay/internal/core/transport/udppath"
)

// AdmissionPolicy decides whether a freshly observed (local, remote) pair
// is eligible to become a path-table entry, e.g. rejecting loopback or
// link-local remotes on a WAN-facing node.
type AdmissionPolicy interface {
	Allow(local, remote endpoint.Endpoint) bool
}

// AllowAll is the default AdmissionPolicy: every path is eligible.
type AllowAll struct{}

// Allow implements AdmissionPolicy.
func (AllowAll) Allow(endpoint.Endpoint, endpoint.Endpoint) bool { return true }

// Facade implements peer.Node over this node's transport socket,
// direct-path source, member networks, and admission policy.
type Facade struct {
	socket   *udppath.Socket
	direct   *directpaths.Source
	policy   AdmissionPolicy

	mu       sync.RWMutex
	networks []peer.Network
}

// New builds a Facade. networks may be updated later via SetNetworks as
// membership changes.
func New(socket *udppath.Socket, direct *directpaths.Source, policy AdmissionPolicy, networks []*network.Membership) *Facade {
	if policy == nil {
		policy = AllowAll{}
	}
	f := &Facade{socket: socket, direct: direct, policy: policy}
	f.SetNetworks(networks)
	return f
}

// SetNetworks replaces the set of member networks announced to peers.
func (f *Facade) SetNetworks(networks []*network.Membership) {
	out := make([]peer.Network, 0, len(networks))
	for _, n := range networks {
		out = append(out, n)
	}
	f.mu.Lock()
	f.networks = out
	f.mu.Unlock()
}

// PRNG implements peer.Node with a cryptographically random 64-bit value.
// The path manager uses this only for load-spreading choices, not for any
// security property, but crypto/rand avoids seeding and locking concerns
// that come with math/rand's global source.
func (f *Facade) PRNG() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return binary.BigEndian.Uint64(buf[:])
}

// PutPacket implements peer.Node.
func (f *Facade) PutPacket(ctx context.Context, local, remote endpoint.Endpoint, data []byte) {
	f.socket.PutPacket(ctx, local, remote, data)
}

// DirectPaths implements peer.Node.
func (f *Facade) DirectPaths() []endpoint.Endpoint {
	return f.direct.DirectPaths()
}

// AllNetworks implements peer.Node.
func (f *Facade) AllNetworks() []peer.Network {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]peer.Network(nil), f.networks...)
}

// ShouldUsePathForTraffic implements peer.Node.
func (f *Facade) ShouldUsePathForTraffic(local, remote endpoint.Endpoint) bool {
	return f.policy.Allow(local, remote)
}
