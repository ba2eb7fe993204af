// Package peer implements the Peer Path Manager: the per-remote-identity
// state machine that tracks reachable network paths to a remote peer,
// scores and selects among them, learns new paths from inbound traffic,
// keeps NATs open, and participates in optional cluster-based path
// redirection.
package peer

import (
	"context"
	"fmt"
	"sync"

	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/internal/core/identity"
	"github.com/quorumnet/overlay/pkg/lib/log"
	"github.com/quorumnet/overlay/pkg/types"
)

var peerLog = log.Logger("peer")

// Peer is bound to a single remote identity and owns everything the
// spec's data model describes (spec §3).
type Peer struct {
	// remoteIdentity, localIdentity, and sharedSecret are set once at
	// construction and never mutated (spec invariant 3).
	remoteIdentity identity.Identity
	localIdentity  identity.Identity
	sharedSecret   [SecretKeyLength]byte

	clock          Clock
	node           Node
	topology       Topology
	selfAwareness  SelfAwareness
	cluster        Cluster // nil when clustering is disabled
	metrics        *Metrics

	mu       sync.Mutex
	paths    pathTable

	lastUsed                  uint64
	lastReceive               uint64
	lastUnicastFrame          uint64
	lastMulticastFrame        uint64
	lastAnnouncedTo           uint64
	lastDirectPathPushSent    uint64
	lastDirectPathPushReceive uint64
	directPathPushed          bool // set once the first direct-path push has been sent

	protoVersion uint8
	verMajor     uint8
	verMinor     uint8
	verRevision  uint16

	latencyEstimate           uint64
	directPathPushCutoffCount uint32

	remoteClusterOptimalV4 bool
	remoteClusterOptimalV6 bool
}

// Option configures optional Peer collaborators at construction time.
type Option func(*Peer)

// WithCluster enables cluster-based path redirection.
func WithCluster(c Cluster) Option {
	return func(p *Peer) { p.cluster = c }
}

// WithMetrics attaches a shared Metrics instance. Without this option a
// Peer reports into unregistered no-op collectors.
func WithMetrics(m *Metrics) Option {
	return func(p *Peer) { p.metrics = m }
}

// NewPeer constructs a Peer bound to remoteIdentity, deriving its shared
// secret from localIdentity via key agreement. Construction is the only
// operation in this package that can fail (spec §7).
func NewPeer(localIdentity, remoteIdentity identity.Identity, clock Clock, node Node, topology Topology, selfAwareness SelfAwareness, opts ...Option) (*Peer, error) {
	secret, err := localIdentity.Agree(remoteIdentity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyAgreementFailed, err)
	}

	p := &Peer{
		remoteIdentity: remoteIdentity,
		localIdentity:  localIdentity,
		clock:          clock,
		node:           node,
		topology:       topology,
		selfAwareness:  selfAwareness,
		metrics:        noopMetrics(),
	}
	copy(p.sharedSecret[:], secret)
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// RemotePeerID identifies the remote end of this Peer.
func (p *Peer) RemotePeerID() types.PeerID {
	return p.remoteIdentity.PeerID()
}

// isEchoCapable reports whether a remote reporting this version can be
// probed with ECHO rather than legacy HELLO (spec §4.3 step 3, resolved
// from the original source: protoVersion >= 5 and the version tuple is
// not exactly 1.1.0).
func isEchoCapable(protoVersion, major, minor uint8, revision uint16) bool {
	if protoVersion < clusterRedirectCapableProtoVersion {
		return false
	}
	return !(major == echoCapableMajor && minor == echoCapableMinor && revision == echoCapableRevision)
}

// Received is the single entry point through which all inbound traffic on
// this Peer's paths is reported (spec §4.3). It never returns an error;
// all send failures are swallowed (spec §7).
func (p *Peer) Received(ctx context.Context, path Path, hops uint8, packetID uint64, verb Verb, inRePacketID uint64, inReVerb Verb, trustEstablished bool) {
	now := p.clock.NowMillis()

	p.mu.Lock()
	defer p.mu.Unlock()

	suboptimal := false
	if p.cluster != nil && hops == 0 && !isClusterRedirectExempt(verb) {
		if redirectTo, ok := p.cluster.FindBetterEndpoint(p.RemotePeerID(), path.Address(), false); ok {
			p.emitClusterRedirect(ctx, path, redirectTo, now)
			suboptimal = true
		}
	}

	p.lastReceive = now
	switch verb {
	case VerbFrame, VerbExtFrame:
		p.lastUnicastFrame = now
	case VerbMulticastFrame:
		p.lastMulticastFrame = now
	}

	if hops == 0 {
		if idx := p.paths.findByAddress(path.Address()); idx >= 0 {
			p.paths.entries[idx].LastReceive = now
			p.paths.entries[idx].Path = path
			p.paths.entries[idx].LocalClusterSuboptimal = suboptimal
		} else if p.node.ShouldUsePathForTraffic(path.LocalAddress(), path.Address()) {
			if verb == VerbOK {
				p.paths.insert(path, now, suboptimal)
				if p.cluster != nil {
					p.cluster.BroadcastHavePeer(p.RemotePeerID())
				}
				p.reportPathGauges()
			} else {
				p.probeUnconfirmedPath(ctx, path, now)
			}
		}
	} else if trustEstablished {
		if p.pushDirectPaths(ctx, path, now) {
			p.metrics.PushDirectPaths.Inc()
		}
	}

	if now-p.lastAnnouncedTo >= uint64(MulticastLikeExpire.Milliseconds())/2-1000 {
		p.lastAnnouncedTo = now
		for _, n := range p.node.AllNetworks() {
			n.TryAnnounceMulticastGroupsTo(ctx, p)
		}
	}
}

// probeUnconfirmedPath sends an ECHO or legacy HELLO to confirm a fresh
// address before it is inserted into the table (spec §4.3 step 3).
func (p *Peer) probeUnconfirmedPath(ctx context.Context, path Path, now uint64) {
	if isEchoCapable(p.protoVersion, p.verMajor, p.verMinor, p.verRevision) {
		path.Send(ctx, EncodeEcho(), now)
	} else {
		p.sendHELLOLocked(ctx, path.LocalAddress(), path.Address(), now)
	}
}

// emitClusterRedirect sends the version-appropriate redirect wire fragment
// (spec §4.3 step 1, §6).
func (p *Peer) emitClusterRedirect(ctx context.Context, path Path, redirectTo endpoint.Endpoint, now uint64) {
	if p.protoVersion >= clusterRedirectCapableProtoVersion {
		records := []PushDirectPathRecord{{Flags: ClusterRedirectBit, Endpoint: redirectTo}}
		packets, err := EncodePushDirectPathsPackets(records)
		if err != nil {
			peerLog.Warn("encode cluster redirect push", "err", err)
			return
		}
		for _, pkt := range packets {
			path.Send(ctx, pkt, now)
		}
	} else {
		msg := &RendezvousMessage{
			LocalIdentityAddress: p.localIdentity.PeerID(),
			RedirectEndpoint:     redirectTo,
		}
		encoded, err := msg.Encode()
		if err != nil {
			peerLog.Warn("encode cluster redirect rendezvous", "err", err)
			return
		}
		path.Send(ctx, encoded, now)
	}
	p.metrics.ClusterRedirects.Inc()
}

// SendDirect picks the highest-scoring path and transmits data over it
// (spec §4.4). It returns false without sending when the table is empty
// or every path is dead and forceEvenIfDead is false.
func (p *Peer) SendDirect(ctx context.Context, data []byte, forceEvenIfDead bool) bool {
	now := p.clock.NowMillis()

	p.mu.Lock()
	defer p.mu.Unlock()

	best := -1
	var bestScore uint64
	for i := 0; i < p.paths.numPaths; i++ {
		if !p.paths.entries[i].Path.Alive(now) && !forceEvenIfDead {
			continue
		}
		s := pathScore(p.paths.entries[i], now)
		if s >= bestScore {
			bestScore = s
			best = i
		}
	}
	if best < 0 {
		return false
	}
	return p.paths.entries[best].Path.Send(ctx, data, now)
}

// GetBestPath returns the highest-scoring path overall, or nil.
func (p *Peer) GetBestPath() Path {
	now := p.clock.NowMillis()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bestPathLocked(now, endpoint.Family(0))
}

// bestPathLocked returns the highest-scoring entry's Path, optionally
// filtered to a single address family (pass endpoint.Family(0) for no
// filter). Caller
// must hold p.mu.
func (p *Peer) bestPathLocked(now uint64, family endpoint.Family) Path {
	best := -1
	var bestScore uint64
	for i := 0; i < p.paths.numPaths; i++ {
		if family != endpoint.Family(0) && p.paths.entries[i].Path.Address().Family() != family {
			continue
		}
		s := pathScore(p.paths.entries[i], now)
		if s >= bestScore {
			bestScore = s
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return p.paths.entries[best].Path
}

// sendHELLOLocked builds and transmits a HELLO fragment via the Node's raw
// send primitive, bypassing path selection because the destination may be
// unconfirmed (spec §4.4). Caller must hold p.mu (or call before any lock
// is taken; the method itself does not touch path-table state).
func (p *Peer) sendHELLOLocked(ctx context.Context, localAddr, remoteAddr endpoint.Endpoint, now uint64) {
	msg := &HelloMessage{
		ProtoVersion:   p.protoVersion,
		VerMajor:       p.verMajor,
		VerMinor:       p.verMinor,
		VerRevision:    p.verRevision,
		Now:            now,
		LocalPublicKey: p.localIdentity.PublicKey(),
		DestAddress:    remoteAddr,
		WorldID:        p.topology.WorldID(),
		WorldTimestamp: p.topology.WorldTimestamp(),
	}
	encoded, err := msg.Encode()
	if err != nil {
		peerLog.Warn("encode hello", "err", err)
		return
	}
	p.node.PutPacket(ctx, localAddr, remoteAddr, encoded)
}

// SendHELLO is the exported form of sendHELLOLocked for collaborators
// (e.g. ResetWithinScope callers, or a Node driving an initial probe)
// that need to trigger a HELLO without going through Received.
func (p *Peer) SendHELLO(ctx context.Context, localAddr, remoteAddr endpoint.Endpoint, now uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sendHELLOLocked(ctx, localAddr, remoteAddr, now)
}

// HasActivePathTo reports whether an entry with addr is currently alive.
func (p *Peer) HasActivePathTo(addr endpoint.Endpoint) bool {
	now := p.clock.NowMillis()
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < p.paths.numPaths; i++ {
		if p.paths.entries[i].Path.Address().Equal(addr) && p.paths.entries[i].Path.Alive(now) {
			return true
		}
	}
	return false
}

// HasActiveDirectPath reports whether any entry is alive.
func (p *Peer) HasActiveDirectPath() bool {
	now := p.clock.NowMillis()
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < p.paths.numPaths; i++ {
		if p.paths.entries[i].Path.Alive(now) {
			return true
		}
	}
	return false
}

// GetBestActiveAddresses returns the highest-scoring path's address per
// family (spec §4.4).
func (p *Peer) GetBestActiveAddresses() (v4, v6 endpoint.Endpoint) {
	now := p.clock.NowMillis()
	p.mu.Lock()
	defer p.mu.Unlock()

	if best := p.bestPathLocked(now, endpoint.FamilyV4); best != nil {
		v4 = best.Address()
	}
	if best := p.bestPathLocked(now, endpoint.FamilyV6); best != nil {
		v6 = best.Address()
	}
	return v4, v6
}

// DoPingAndKeepalive implements spec §4.5. family == endpoint.Family(0)
// means no family filter. It returns whether any path
// existed for the requested family.
func (p *Peer) DoPingAndKeepalive(ctx context.Context, family endpoint.Family) bool {
	now := p.clock.NowMillis()
	p.mu.Lock()
	defer p.mu.Unlock()

	best := -1
	var bestScore uint64
	for i := 0; i < p.paths.numPaths; i++ {
		if family != endpoint.Family(0) && p.paths.entries[i].Path.Address().Family() != family {
			continue
		}
		s := pathScore(p.paths.entries[i], now)
		if s >= bestScore {
			bestScore = s
			best = i
		}
	}
	if best < 0 {
		return false
	}

	entry := &p.paths.entries[best]
	if now-entry.LastReceive >= uint64(PingPeriod.Milliseconds()) {
		p.sendHELLOLocked(ctx, entry.Path.LocalAddress(), entry.Path.Address(), now)
	} else if entry.Path.NeedsHeartbeat(now) {
		entry.Path.Send(ctx, natKeepaliveBuf(now), now)
	}
	return true
}

// natKeepaliveBuf produces a small, unauthenticated, value-varying buffer
// that must not be a valid protocol packet: it tumbles a 32-bit value by
// mixing now with a fixed multiplier, purely to refresh a NAT mapping
// (spec §4.5).
func natKeepaliveBuf(now uint64) []byte {
	v := uint32(now * 0x9e3779b1 >> 1)
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// Clean drops entries that have not received traffic within
// PathExpiration (spec §4.7).
func (p *Peer) Clean() {
	now := p.clock.NowMillis()
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := p.paths.removeIf(func(e PathEntry) bool {
		return now-e.LastReceive > uint64(PathExpiration.Milliseconds())
	})
	if removed > 0 {
		p.metrics.PathsEvicted.Add(float64(removed))
		p.reportPathGauges()
	}
}

// ResetWithinScope drops every entry whose address falls in scope, first
// sending it a HELLO so the remote can re-establish the path (spec §4.7).
// It returns whether any entry was removed.
func (p *Peer) ResetWithinScope(ctx context.Context, scope endpoint.Scope) bool {
	now := p.clock.NowMillis()
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := p.paths.removeIf(func(e PathEntry) bool {
		if e.Path.Address().ClassifyScope() != scope {
			return false
		}
		p.sendHELLOLocked(ctx, e.Path.LocalAddress(), e.Path.Address(), now)
		return true
	})
	if removed > 0 {
		p.metrics.PathsEvicted.Add(float64(removed))
		p.reportPathGauges()
	}
	return removed > 0
}

// SetReportedVersion records the remote's self-reported protocol/product
// version, as observed by HELLO/OK handlers external to this package
// (spec §3).
func (p *Peer) SetReportedVersion(protoVersion, major, minor uint8, revision uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.protoVersion = protoVersion
	p.verMajor = major
	p.verMinor = minor
	p.verRevision = revision
}

// NumPaths returns the current live path count.
func (p *Peer) NumPaths() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paths.numPaths
}

// reportPathGauges refreshes the per-family path-count gauges. Caller
// must hold p.mu.
func (p *Peer) reportPathGauges() {
	var v4, v6 int
	for i := 0; i < p.paths.numPaths; i++ {
		if p.paths.entries[i].Path.Address().Family() == endpoint.FamilyV4 {
			v4++
		} else {
			v6++
		}
	}
	p.metrics.Paths.WithLabelValues("v4").Set(float64(v4))
	p.metrics.Paths.WithLabelValues("v6").Set(float64(v6))
}
