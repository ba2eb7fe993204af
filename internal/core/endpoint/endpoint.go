// Package endpoint represents a single network path's remote address: an
// IP address and a UDP-like port, classified by address family and IP
// scope. It plays the role of the teacher's address.Addr, but represents
// raw IP+port pairs rather than multiaddr strings — the Peer Path Manager's
// wire fragments (spec §6) carry raw IP bytes and a big-endian port, not
// multiaddr text, so that is the representation kept close at hand.
package endpoint

import (
	"errors"
	"net"
)

// Family identifies an address family.
type Family uint8

const (
	FamilyV4 Family = 4
	FamilyV6 Family = 6
)

// Scope classifies an IP address the way spec §4.7 resetWithinScope
// requires: link-local, private (RFC1918/ULA), or global.
type Scope int

const (
	ScopeUnknown Scope = iota
	ScopeLoopback
	ScopeLinkLocal
	ScopePrivate
	ScopeGlobal
)

func (s Scope) String() string {
	switch s {
	case ScopeLoopback:
		return "loopback"
	case ScopeLinkLocal:
		return "link-local"
	case ScopePrivate:
		return "private"
	case ScopeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Endpoint is a (family, IP, port) tuple compared by value.
type Endpoint struct {
	IP   net.IP
	Port uint16
}

// ErrUnsupportedFamily is returned for addresses that are neither IPv4 nor
// IPv6 (spec §4.6: "non-IP families are skipped").
var ErrUnsupportedFamily = errors.New("endpoint: unsupported address family")

// New builds an Endpoint, normalizing the IP to its 4- or 16-byte form.
func New(ip net.IP, port uint16) Endpoint {
	if v4 := ip.To4(); v4 != nil {
		return Endpoint{IP: v4, Port: port}
	}
	return Endpoint{IP: ip.To16(), Port: port}
}

// FromUDPAddr builds an Endpoint from a *net.UDPAddr.
func FromUDPAddr(a *net.UDPAddr) Endpoint {
	return New(a.IP, uint16(a.Port))
}

// Family reports whether this is a v4 or v6 endpoint. Non-IP endpoints
// report Family(0).
func (e Endpoint) Family() Family {
	if e.IP.To4() != nil {
		return FamilyV4
	}
	if len(e.IP) == net.IPv6len {
		return FamilyV6
	}
	return 0
}

// RawIP returns the address family's minimal byte representation: 4 bytes
// for v4, 16 for v6. Returns an error for anything else.
func (e Endpoint) RawIP() (net.IP, error) {
	switch e.Family() {
	case FamilyV4:
		return e.IP.To4(), nil
	case FamilyV6:
		return e.IP.To16(), nil
	default:
		return nil, ErrUnsupportedFamily
	}
}

// Equal compares two endpoints by (family, ip bytes, port) — the
// address-uniqueness invariant (spec invariant 2) is defined over exactly
// these fields.
func (e Endpoint) Equal(o Endpoint) bool {
	return e.Port == o.Port && e.IP.Equal(o.IP)
}

// IsZero reports whether the endpoint carries no IP.
func (e Endpoint) IsZero() bool {
	return len(e.IP) == 0
}

func (e Endpoint) String() string {
	return (&net.UDPAddr{IP: e.IP, Port: int(e.Port)}).String()
}

// ClassifyScope classifies e's IP scope, following the same net.IP
// predicate battery the teacher's address package uses in manager.go and
// priority.go (IsLoopback / IsLinkLocalUnicast / IsPrivate).
func (e Endpoint) ClassifyScope() Scope {
	ip := e.IP
	switch {
	case ip == nil:
		return ScopeUnknown
	case ip.IsLoopback():
		return ScopeLoopback
	case ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast():
		return ScopeLinkLocal
	case ip.IsPrivate():
		return ScopePrivate
	case ip.IsGlobalUnicast():
		return ScopeGlobal
	default:
		return ScopeUnknown
	}
}
