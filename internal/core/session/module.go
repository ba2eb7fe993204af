package session

import (
	"go.uber.org/fx"

	"github.com/quorumnet/overlay/internal/core/identity"
	"github.com/quorumnet/overlay/internal/core/peer"
	"github.com/quorumnet/overlay/internal/core/topology"
)

// Module provides a *Manager. Cluster is injected as an optional
// dependency: most deployments run without one.
func Module() fx.Option {
	return fx.Module("session",
		fx.Provide(ProvideManager),
	)
}

type managerParams struct {
	fx.In
	Local         identity.Identity
	Clock         peer.Clock
	Node          peer.Node
	Topology      *topology.Registry
	SelfAwareness peer.SelfAwareness
	Cluster       peer.Cluster `optional:"true"`
	Metrics       *peer.Metrics
}

// ProvideManager builds a *Manager from its collaborators.
func ProvideManager(p managerParams) *Manager {
	return New(p.Local, p.Clock, p.Node, p.Topology, p.SelfAwareness, p.Cluster, p.Metrics)
}
