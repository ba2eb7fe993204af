package selfawareness

import (
	"context"
	"time"

	"go.uber.org/fx"
)

// Config lists the STUN servers used to sample this node's NAT mapping
// behavior.
type Config struct {
	STUNServers []string
}

// Module provides a *Predictor and runs its periodic refresh loop for the
// lifetime of the fx application.
func Module() fx.Option {
	return fx.Module("selfawareness",
		fx.Provide(ProvidePredictor),
		fx.Invoke(registerLifecycle),
	)
}

// ProvidePredictor builds a *Predictor from Config.
func ProvidePredictor(cfg Config) *Predictor {
	return New(cfg.STUNServers)
}

type lifecycleParams struct {
	fx.In
	LC        fx.Lifecycle
	Predictor *Predictor
}

func registerLifecycle(p lifecycleParams) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.LC.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			if err := p.Predictor.Refresh(startCtx); err != nil {
				logger.Warn("initial nat sample failed", "err", err)
			}
			go runRefreshLoop(ctx, p.Predictor, done)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}

func runRefreshLoop(ctx context.Context, p *Predictor, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(DefaultRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				logger.Warn("nat sample failed", "err", err)
			}
		}
	}
}
