package topology

import (
	"go.uber.org/fx"
)

// Config controls the registry's resident-peer capacity.
type Config struct {
	Capacity int
}

// Module provides the peer registry as *Registry. It does not provide the
// narrower peer.Registry/peer.Topology interfaces; the application maps
// those to the same instance itself.
func Module() fx.Option {
	return fx.Module("topology",
		fx.Provide(NewFromConfig),
	)
}

// NewFromConfig builds a Registry from Config, falling back to
// DefaultCapacity for a zero value.
func NewFromConfig(cfg Config) (*Registry, error) {
	return New(cfg.Capacity)
}
