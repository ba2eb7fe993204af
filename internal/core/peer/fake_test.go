package peer

import (
	"context"
	"net"
	"sync"

	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/pkg/types"
)

// fakePath is a minimal, controllable Path used across this package's
// tests.
type fakePath struct {
	mu           sync.Mutex
	addr         endpoint.Endpoint
	localAddr    endpoint.Endpoint
	aliveWindow  bool
	needsHB      bool
	sendResult   bool
	sends        [][]byte
	sendCount    int
}

func newFakePath(ip string, port uint16) *fakePath {
	return &fakePath{
		addr:       endpoint.New(net.ParseIP(ip), port),
		localAddr:  endpoint.New(net.ParseIP("10.0.0.1"), 4433),
		aliveWindow: true,
		sendResult: true,
	}
}

func (f *fakePath) Address() endpoint.Endpoint      { return f.addr }
func (f *fakePath) LocalAddress() endpoint.Endpoint { return f.localAddr }
func (f *fakePath) Alive(now uint64) bool           { return f.aliveWindow }
func (f *fakePath) NeedsHeartbeat(now uint64) bool  { return f.needsHB }

func (f *fakePath) Send(ctx context.Context, data []byte, now uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCount++
	f.sends = append(f.sends, data)
	return f.sendResult
}

func (f *fakePath) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCount
}

// fakeNode is a minimal, controllable Node.
type fakeNode struct {
	prng                    uint64
	directPathAddrs         []endpoint.Endpoint
	networks                []Network
	shouldUseTraffic        bool
	putPacketCalls          int
}

func (n *fakeNode) PRNG() uint64 { n.prng++; return n.prng }
func (n *fakeNode) PutPacket(ctx context.Context, local, remote endpoint.Endpoint, data []byte) {
	n.putPacketCalls++
}
func (n *fakeNode) DirectPaths() []endpoint.Endpoint { return n.directPathAddrs }
func (n *fakeNode) AllNetworks() []Network           { return n.networks }
func (n *fakeNode) ShouldUsePathForTraffic(local, remote endpoint.Endpoint) bool {
	return n.shouldUseTraffic
}

// fakeTopology is a minimal Topology.
type fakeTopology struct {
	id, ts uint64
}

func (t *fakeTopology) WorldID() uint64        { return t.id }
func (t *fakeTopology) WorldTimestamp() uint64 { return t.ts }

// fakeSelfAwareness is a minimal SelfAwareness.
type fakeSelfAwareness struct {
	predictions []endpoint.Endpoint
}

func (s *fakeSelfAwareness) GetSymmetricNatPredictions() []endpoint.Endpoint {
	return s.predictions
}

// fakeClock is a settable Clock for deterministic tests.
type fakeClock struct {
	mu  sync.Mutex
	now uint64
}

func mockNowClock(start uint64) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) NowMillis() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// fakeCluster is a minimal Cluster.
type fakeCluster struct {
	mu             sync.Mutex
	better         endpoint.Endpoint
	hasBetter      bool
	broadcastCalls int
}

func (c *fakeCluster) FindBetterEndpoint(remote types.PeerID, current endpoint.Endpoint, preferOlder bool) (endpoint.Endpoint, bool) {
	return c.better, c.hasBetter
}

func (c *fakeCluster) BroadcastHavePeer(remote types.PeerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcastCalls++
}
