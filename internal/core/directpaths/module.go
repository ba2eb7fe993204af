package directpaths

import (
	"context"
	"net"
	"time"

	"go.uber.org/fx"
)

// Config selects the listen port to advertise and, optionally, a NAT-PMP
// gateway to request an external mapping from.
type Config struct {
	Port      int
	GatewayIP net.IP
}

// Module provides a *Source and periodically refreshes it for the
// lifetime of the fx application.
func Module() fx.Option {
	return fx.Module("directpaths",
		fx.Provide(ProvideSource),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideSource builds a *Source from Config.
func ProvideSource(cfg Config) *Source {
	return New(cfg.Port, cfg.GatewayIP)
}

type lifecycleParams struct {
	fx.In
	LC     fx.Lifecycle
	Source *Source
}

func registerLifecycle(p lifecycleParams) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.LC.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			if err := p.Source.Refresh(startCtx); err != nil {
				logger.Warn("initial direct path discovery failed", "err", err)
			}
			go refreshLoop(ctx, p.Source, done)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}

func refreshLoop(ctx context.Context, s *Source, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(DefaultMappingDuration / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				logger.Warn("direct path refresh failed", "err", err)
			}
		}
	}
}
