package node

import (
	"go.uber.org/fx"

	"github.com/quorumnet/overlay/internal/core/directpaths"
	"github.com/quorumnet/overlay/internal/core/network"
	"github.com/quorumnet/overlay/internal/core/peer"
	"github.com/quorumnet/overlay/internal/core/transport/udppath"
)

// Module provides peer.Node, backed by a *Facade. It does not provide
// peer.Topology; topology.Registry supplies that.
func Module() fx.Option {
	return fx.Module("node",
		fx.Provide(ProvideFacade),
	)
}

type facadeParams struct {
	fx.In
	Socket   *udppath.Socket
	Direct   *directpaths.Source
	Networks []*network.Membership `optional:"true"`
}

// ProvideFacade builds a *Facade from the transport socket, direct-path
// source, and configured member networks.
func ProvideFacade(p facadeParams) peer.Node {
	return New(p.Socket, p.Direct, AllowAll{}, p.Networks)
}
