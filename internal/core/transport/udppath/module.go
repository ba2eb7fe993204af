package udppath

import (
	"context"

	"go.uber.org/fx"
)

// Config selects the local UDP bind address.
type Config struct {
	ListenAddr string
}

// Module provides a *Socket bound for the lifetime of the fx application.
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideSocket),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideSocket binds a *Socket from Config.
func ProvideSocket(cfg Config) (*Socket, error) {
	return Listen(cfg.ListenAddr)
}

type lifecycleParams struct {
	fx.In
	LC     fx.Lifecycle
	Socket *Socket
}

func registerLifecycle(p lifecycleParams) {
	p.LC.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return p.Socket.Close()
		},
	})
}
