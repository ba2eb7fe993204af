// Package network implements peer.Network: telling a Peer Path Manager
// which multicast groups a member network wants announced to a remote once
// that remote has an authenticated path (spec §4.3 step 5).
package network

import (
	"context"
	"sync"

	"github.com/quorumnet/overlay/internal/core/peer"
	"github.com/quorumnet/overlay/pkg/lib/log"
)

var logger = log.Logger("core/network")

// MulticastGroup identifies a member network's multicast group by its
// numeric network ID and group address, matching the wire encoding a
// MULTICAST_LIKE announce frame would carry.
type MulticastGroup struct {
	NetworkID uint64
	MAC       [6]byte
	ADI       uint32
}

// Membership is a member network the node participates in.
type Membership struct {
	mu     sync.RWMutex
	id     uint64
	groups []MulticastGroup
}

// NewMembership builds a Membership for networkID with an initial group
// set.
func NewMembership(networkID uint64, groups []MulticastGroup) *Membership {
	return &Membership{id: networkID, groups: append([]MulticastGroup(nil), groups...)}
}

// SetGroups replaces the announced group set, e.g. as the local host joins
// or leaves multicast groups.
func (m *Membership) SetGroups(groups []MulticastGroup) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = append([]MulticastGroup(nil), groups...)
}

// TryAnnounceMulticastGroupsTo implements peer.Network. It encodes each
// group membership as a MULTICAST_LIKE frame and sends it over the peer's
// current best path, swallowing send failures per spec §7.
func (m *Membership) TryAnnounceMulticastGroupsTo(ctx context.Context, p *peer.Peer) {
	m.mu.RLock()
	groups := append([]MulticastGroup(nil), m.groups...)
	m.mu.RUnlock()

	for _, g := range groups {
		frame := encodeMulticastLike(m.id, g)
		if !p.SendDirect(ctx, frame, false) {
			logger.Debug("multicast announce dropped", "peer", p.RemotePeerID().ShortString())
		}
	}
}

// encodeMulticastLike builds the wire payload for a single group
// membership announcement: network ID, MAC, and ADI, big-endian.
func encodeMulticastLike(networkID uint64, g MulticastGroup) []byte {
	buf := make([]byte, 8+6+4)
	putUint64(buf[0:8], networkID)
	copy(buf[8:14], g.MAC[:])
	putUint32(buf[14:18], g.ADI)
	return buf
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> (8 * i))
	}
}

func putUint32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[3-i] = byte(v >> (8 * i))
	}
}
