package peer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/quorumnet/overlay/internal/core/endpoint"
)

// Registry supplies the set of Peers a MaintenanceRunner should sweep.
// internal/core/topology implements this over its bounded peer map.
type Registry interface {
	Peers() []*Peer
}

// MaintenanceRunner periodically calls Clean and DoPingAndKeepalive across
// every Peer a Registry knows about, the same cadence the teacher's
// pathhealth Manager uses for its own cleanupLoop: a ticker at half the
// expiration window, driven by an fx lifecycle hook rather than a bare
// goroutine started from main.
type MaintenanceRunner struct {
	registry Registry

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMaintenanceRunner builds a runner over registry.
func NewMaintenanceRunner(registry Registry) *MaintenanceRunner {
	return &MaintenanceRunner{registry: registry}
}

// Start begins the maintenance ticker. It is idempotent.
func (r *MaintenanceRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(runCtx)
	return nil
}

// Stop halts the maintenance ticker and waits for it to exit.
func (r *MaintenanceRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
	return nil
}

func (r *MaintenanceRunner) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(PathExpiration / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *MaintenanceRunner) sweep(ctx context.Context) {
	for _, p := range r.registry.Peers() {
		p.Clean()
		p.DoPingAndKeepalive(ctx, endpoint.Family(0))
	}
}

// Module wires the peer package's metrics and maintenance loop into the
// application's fx graph, grounded on pathhealth's Module/Start/Stop
// lifecycle shape.
func Module() fx.Option {
	return fx.Module("peer",
		fx.Provide(NewMetrics),
		fx.Provide(NewMaintenanceRunner),
		fx.Invoke(registerLifecycle),
	)
}

type lifecycleParams struct {
	fx.In
	LC      fx.Lifecycle
	Runner  *MaintenanceRunner
}

func registerLifecycle(p lifecycleParams) {
	p.LC.Append(fx.Hook{
		OnStart: p.Runner.Start,
		OnStop:  p.Runner.Stop,
	})
}
