// Package directpaths discovers the local endpoints a node should offer a
// peer via PUSH_DIRECT_PATHS: its bound local interface addresses plus, if
// a NAT-PMP gateway maps a port, the external address that mapping
// produces (spec §4.6, Node.DirectPaths()).
package directpaths

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	natpmp "github.com/jackpal/go-nat-pmp"

	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/pkg/lib/log"
)

var logger = log.Logger("core/directpaths")

// DefaultMappingDuration is the NAT-PMP lease requested for the overlay
// listen port.
const DefaultMappingDuration = time.Hour

// DefaultTimeout bounds a single NAT-PMP round trip.
const DefaultTimeout = 5 * time.Second

// Source discovers direct paths for a single bound UDP port.
type Source struct {
	port int

	mu       sync.RWMutex
	local    []endpoint.Endpoint
	external *endpoint.Endpoint

	client *natpmp.Client
}

// New builds a Source for a node listening on port. gatewayIP, if non-nil,
// enables NAT-PMP external mapping; without it Source reports only local
// interface addresses.
func New(port int, gatewayIP net.IP) *Source {
	s := &Source{port: port}
	if gatewayIP != nil {
		s.client = natpmp.NewClientWithTimeout(gatewayIP, DefaultTimeout)
	}
	return s
}

// Refresh re-enumerates local interface addresses and, if a NAT-PMP
// gateway is configured, requests or renews the external port mapping.
func (s *Source) Refresh(ctx context.Context) error {
	local, err := localEndpoints(s.port)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.local = local
	s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	return s.refreshMapping(ctx)
}

func (s *Source) refreshMapping(ctx context.Context) error {
	result, err := s.client.AddPortMapping("udp", s.port, s.port, int(DefaultMappingDuration.Seconds()))
	if err != nil {
		return fmt.Errorf("natpmp map port: %w", err)
	}
	extAddr, err := s.client.GetExternalAddress()
	if err != nil {
		return fmt.Errorf("natpmp external address: %w", err)
	}

	ep := endpoint.New(net.IP(extAddr.ExternalIPAddress[:]), uint16(result.MappedExternalPort))
	s.mu.Lock()
	s.external = &ep
	s.mu.Unlock()
	logger.Debug("nat-pmp mapping refreshed", "external", ep.String())
	return nil
}

// DirectPaths implements the DirectPaths() half of peer.Node: local
// interface addresses plus, if known, the NAT-PMP external mapping.
func (s *Source) DirectPaths() []endpoint.Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]endpoint.Endpoint, 0, len(s.local)+1)
	out = append(out, s.local...)
	if s.external != nil {
		out = append(out, *s.external)
	}
	return out
}

func localEndpoints(port int) ([]endpoint.Endpoint, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	out := make([]endpoint.Endpoint, 0, len(addrs))
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP
		if ip.IsLoopback() || ip.IsUnspecified() {
			continue
		}
		out = append(out, endpoint.New(ip, uint16(port)))
	}
	return out, nil
}
