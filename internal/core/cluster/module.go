package cluster

import (
	"time"

	"go.uber.org/fx"
)

// Config controls the Router's redirect-cooldown behavior. Enabled is not
// read by this package: ProvideRouter always builds a *Router, so
// clustering is switched off by leaving Module out of the application.
type Config struct {
	Enabled           bool
	CooldownCacheSize int
	Cooldown          time.Duration
}

// Module provides a *Router (and, transitively, peer.Cluster for whichever
// component wires it into peer.WithCluster) whenever it is included; it
// does not check Config.Enabled. It does not provide a MemberDirectory: that is the transport
// layer's responsibility, supplied separately.
func Module() fx.Option {
	return fx.Module("cluster",
		fx.Provide(ProvideRouter),
	)
}

// ProvideRouter builds a *Router from Config and an externally-supplied
// MemberDirectory.
func ProvideRouter(dir MemberDirectory, cfg Config) (*Router, error) {
	return New(dir, cfg.CooldownCacheSize, cfg.Cooldown)
}
