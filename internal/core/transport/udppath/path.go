// Package udppath is the reference peer.Path implementation: a UDP
// datagram channel to one remote endpoint, multiplexed over a single
// bound socket shared by every Path to every peer (spec §1, §4.1's
// "Path" abstraction).
package udppath

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	temperr "github.com/jbenet/go-temp-err-catcher"

	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/pkg/lib/log"
)

var logger = log.Logger("core/transport/udppath")

// KeepaliveInterval is the minimum gap between two heartbeats sent over an
// otherwise-idle Path, matching the interval NeedsHeartbeat enforces.
const KeepaliveInterval = 25 * time.Second

// AliveWindow bounds how long ago a Path must have sent or received
// traffic to be considered usable.
const AliveWindow = 30 * time.Second

// Socket owns the single UDP connection every Path on this node sends
// through and reads from.
type Socket struct {
	conn *net.UDPConn
}

// Listen binds a UDP socket on addr ("host:port" or ":port").
func Listen(addr string) (*Socket, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &Socket{conn: conn}, nil
}

// LocalAddr returns the bound local address.
func (s *Socket) LocalAddr() endpoint.Endpoint {
	addr := s.conn.LocalAddr().(*net.UDPAddr)
	return endpoint.New(addr.IP, uint16(addr.Port))
}

// Close releases the underlying socket.
func (s *Socket) Close() error {
	return s.conn.Close()
}

// PutPacket writes data to remote from this socket, ignoring local since a
// single shared socket cannot originate from more than one local address.
// It satisfies the raw-send half of peer.Node.
func (s *Socket) PutPacket(_ context.Context, _ endpoint.Endpoint, remote endpoint.Endpoint, data []byte) {
	rawIP, err := remote.RawIP()
	if err != nil {
		logger.Debug("put packet failed", "remote", remote.String(), "err", err)
		return
	}
	udpAddr := &net.UDPAddr{IP: rawIP, Port: int(remote.Port)}
	if _, err := s.conn.WriteToUDP(data, udpAddr); err != nil {
		logger.Debug("put packet failed", "remote", remote.String(), "err", err)
	}
}

// Datagram is one inbound packet read off the socket.
type Datagram struct {
	From endpoint.Endpoint
	Data []byte
}

// ReadLoop reads datagrams until ctx is canceled or the socket is closed,
// delivering each to handle. Transient read errors (e.g. a momentarily
// full receive buffer) are retried rather than treated as fatal.
func (s *Socket) ReadLoop(ctx context.Context, handle func(Datagram)) error {
	var catcher temperr.TempErrCatcher
	buf := make([]byte, 65535)
	// Cancelling ctx expires the read deadline so a blocked read returns.
	stop := context.AfterFunc(ctx, func() { s.conn.SetReadDeadline(time.Now()) })
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if catcher.IsTemporary(err) {
				continue
			}
			return err
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		handle(Datagram{From: endpoint.New(addr.IP, uint16(addr.Port)), Data: data})
	}
}

// Path is a peer.Path bound to one remote endpoint over a shared Socket.
type Path struct {
	socket *Socket
	local  endpoint.Endpoint
	remote endpoint.Endpoint

	lastSend    atomic.Int64
	lastReceive atomic.Int64
}

// New builds a Path to remote over socket, seeded with the given
// nowMillis as its initial activity timestamp.
func New(socket *Socket, remote endpoint.Endpoint, nowMillis uint64) *Path {
	p := &Path{socket: socket, local: socket.LocalAddr(), remote: remote}
	p.lastReceive.Store(int64(nowMillis))
	return p
}

// Address implements peer.Path.
func (p *Path) Address() endpoint.Endpoint { return p.remote }

// LocalAddress implements peer.Path.
func (p *Path) LocalAddress() endpoint.Endpoint { return p.local }

// Alive implements peer.Path.
func (p *Path) Alive(nowMillis uint64) bool {
	last := latest(p.lastSend.Load(), p.lastReceive.Load())
	return nowMillis-uint64(last) <= uint64(AliveWindow.Milliseconds())
}

// NeedsHeartbeat implements peer.Path.
func (p *Path) NeedsHeartbeat(nowMillis uint64) bool {
	return nowMillis-uint64(p.lastSend.Load()) >= uint64(KeepaliveInterval.Milliseconds())
}

// Send implements peer.Path.
func (p *Path) Send(_ context.Context, data []byte, nowMillis uint64) bool {
	rawIP, err := p.remote.RawIP()
	if err != nil {
		logger.Debug("send failed", "remote", p.remote.String(), "err", err)
		return false
	}
	udpAddr := &net.UDPAddr{IP: rawIP, Port: int(p.remote.Port)}
	if _, err := p.socket.conn.WriteToUDP(data, udpAddr); err != nil {
		logger.Debug("send failed", "remote", p.remote.String(), "err", err)
		return false
	}
	p.lastSend.Store(int64(nowMillis))
	return true
}

// NoteReceived records that a packet arrived on this Path at nowMillis.
func (p *Path) NoteReceived(nowMillis uint64) {
	p.lastReceive.Store(int64(nowMillis))
}

func latest(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
