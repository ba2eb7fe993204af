package network

import "go.uber.org/fx"

// Config lists the member networks this node announces multicast
// membership for.
type Config struct {
	Networks []NetworkConfig
}

// NetworkConfig is one member network's static configuration.
type NetworkConfig struct {
	ID     uint64
	Groups []MulticastGroup
}

// Module provides the []*Membership set consumed as peer.Node.AllNetworks.
func Module() fx.Option {
	return fx.Module("network",
		fx.Provide(ProvideMemberships),
	)
}

// ProvideMemberships builds one *Membership per configured network.
func ProvideMemberships(cfg Config) []*Membership {
	out := make([]*Membership, 0, len(cfg.Networks))
	for _, n := range cfg.Networks {
		out = append(out, NewMembership(n.ID, n.Groups))
	}
	return out
}
