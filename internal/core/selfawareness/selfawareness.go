// Package selfawareness predicts externally-visible endpoints this node is
// likely to be assigned next by a symmetric NAT, so a Peer Path Manager can
// seed PUSH_DIRECT_PATHS with addresses a remote peer would not otherwise
// discover (spec: SelfAwareness.GetSymmetricNatPredictions()).
//
// A symmetric NAT allocates a fresh external port per destination. Two
// STUN queries issued back-to-back from the same local socket, to two
// different servers, reveal the NAT's port allocation delta; extrapolating
// that delta from the most recent observed mapping yields a small set of
// plausible next-allocation guesses.
package selfawareness

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pion/stun"

	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/pkg/lib/log"
)

var logger = log.Logger("core/selfawareness")

// DefaultRefreshInterval bounds how often the background prober re-samples
// the NAT's allocation delta.
const DefaultRefreshInterval = 2 * time.Minute

// DefaultQueryTimeout bounds a single STUN query.
const DefaultQueryTimeout = 3 * time.Second

// MaxPredictions caps how many candidate endpoints a single call returns.
const MaxPredictions = 4

// Predictor implements peer.SelfAwareness by sampling this node's NAT
// mapping behavior against a pair of STUN servers.
type Predictor struct {
	servers []string
	timeout time.Duration

	mu       sync.RWMutex
	lastIP   net.IP
	lastPort int
	delta    int
	haveData bool
}

// New builds a Predictor. It performs no I/O until Refresh is called.
func New(stunServers []string) *Predictor {
	return &Predictor{
		servers: stunServers,
		timeout: DefaultQueryTimeout,
	}
}

// Refresh issues two STUN queries from the same local socket against two
// distinct servers (or the same server twice, if only one is configured)
// and records the external-port delta between them.
func (p *Predictor) Refresh(ctx context.Context) error {
	if len(p.servers) == 0 {
		return nil
	}
	serverA := p.servers[0]
	serverB := p.servers[0]
	if len(p.servers) > 1 {
		serverB = p.servers[1]
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline := time.Now().Add(p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	mappedA, err := query(conn, serverA)
	if err != nil {
		return err
	}
	mappedB, err := query(conn, serverB)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastIP = mappedB.IP
	p.lastPort = mappedB.Port
	p.delta = mappedB.Port - mappedA.Port
	p.haveData = true
	logger.Debug("nat mapping sampled", "external", mappedB.String(), "delta", p.delta)
	return nil
}

// GetSymmetricNatPredictions implements peer.SelfAwareness. Predictions
// are the externally-visible IP with successive multiples of the observed
// port delta applied; a prediction whose port falls outside 1-65535 is
// skipped. If no successful sample exists yet, or the observed delta is
// zero, it returns nil.
func (p *Predictor) GetSymmetricNatPredictions() []endpoint.Endpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.haveData || p.delta == 0 {
		return nil
	}

	out := make([]endpoint.Endpoint, 0, MaxPredictions)
	for i := 1; i <= MaxPredictions; i++ {
		port := p.lastPort + p.delta*i
		if port < 1 || port > 65535 {
			continue
		}
		out = append(out, endpoint.New(p.lastIP, uint16(port)))
	}
	return out
}

func query(conn *net.UDPConn, server string) (*net.UDPAddr, error) {
	addr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		return nil, err
	}
	if _, err := conn.WriteToUDP(bindingRequest(), addr); err != nil {
		return nil, err
	}

	buf := make([]byte, 1500)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		return nil, err
	}

	msg := &stun.Message{Raw: buf[:n]}
	if err := msg.Decode(); err != nil {
		return nil, err
	}

	var xor stun.XORMappedAddress
	if err := xor.GetFrom(msg); err != nil {
		return nil, err
	}
	return &net.UDPAddr{IP: xor.IP, Port: xor.Port}, nil
}

func bindingRequest() []byte {
	msg, err := stun.Build(stun.TransactionID, stun.BindingRequest)
	if err != nil {
		return nil
	}
	return msg.Raw
}
