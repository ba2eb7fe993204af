// Command overlayd runs a single overlay node: a UDP socket, a bounded peer
// registry, and the maintenance loop that keeps every resident Peer's path
// table alive (spec §1, §5's DoPingAndKeepalive/Clean cadence).
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"encoding/pem"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/quorumnet/overlay/config"
	"github.com/quorumnet/overlay/internal/core/cluster"
	"github.com/quorumnet/overlay/internal/core/clock"
	"github.com/quorumnet/overlay/internal/core/directpaths"
	"github.com/quorumnet/overlay/internal/core/identity"
	"github.com/quorumnet/overlay/internal/core/network"
	"github.com/quorumnet/overlay/internal/core/node"
	"github.com/quorumnet/overlay/internal/core/peer"
	"github.com/quorumnet/overlay/internal/core/selfawareness"
	"github.com/quorumnet/overlay/internal/core/session"
	"github.com/quorumnet/overlay/internal/core/topology"
	"github.com/quorumnet/overlay/internal/core/transport/udppath"
	"github.com/quorumnet/overlay/pkg/lib/log"
)

var logger = log.Logger("cmd/overlayd")

var (
	configFile = flag.String("config", "", "path to a JSON config file")
	listenAddr = flag.String("listen", "", "override listen_addr from the config file")
	logLevel   = flag.String("log-level", "", "override log level (debug/info/warn/error)")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "overlayd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if isFlagSet("listen") {
		cfg.ListenAddr = *listenAddr
	}
	if isFlagSet("log-level") {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := setupLogging(cfg.Log); err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	self, err := loadOrCreateIdentity(cfg.IdentityKeyFile)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}
	logger.Info("node identity ready", "peer", self.PeerID().ShortString())

	app := buildApp(cfg, self)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	logger.Info("overlayd running", "listen", cfg.ListenAddr)
	waitForSignal()

	logger.Info("shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return app.Stop(stopCtx)
}

// buildApp assembles the fx application graph: every core package's Module
// is wired together here, with a handful of adapter providers bridging
// concrete constructors to the interface types the peer package expects
// (mirroring how the teacher's bootstrap wires narrower interfaces on top
// of concrete component constructors).
func buildApp(cfg *config.Config, self identity.Identity) *fx.App {
	registerer := prometheus.NewRegistry()

	opts := []fx.Option{
		fx.NopLogger,
		fx.Supply(self),
		fx.Supply(prometheus.Registerer(registerer)),
		fx.Provide(func() peer.Clock { return clock.New() }),

		fx.Supply(udppath.Config{ListenAddr: cfg.ListenAddr}),
		udppath.Module(),

		fx.Supply(directpaths.Config{
			Port:      listenPort(cfg.ListenAddr),
			GatewayIP: net.ParseIP(cfg.DirectPaths.NATPMPGatewayIP),
		}),
		directpaths.Module(),

		fx.Supply(selfawareness.Config{STUNServers: cfg.SelfAwareness.STUNServers}),
		selfawareness.Module(),
		fx.Provide(func(s *selfawareness.Predictor) peer.SelfAwareness { return s }),

		fx.Supply(network.Config{}),
		network.Module(),

		fx.Supply(topology.Config{Capacity: cfg.RegistryCapacity}),
		topology.Module(),
		fx.Provide(func(r *topology.Registry) peer.Registry { return r }),
		fx.Provide(func(r *topology.Registry) peer.Topology { return r }),

		node.Module(),

		peer.Module(),
		session.Module(),

		fx.Invoke(func(lc fx.Lifecycle, sock *udppath.Socket, mgr *session.Manager) {
			registerIngress(lc, sock, mgr)
		}),

		fx.Invoke(func(lc fx.Lifecycle) {
			if cfg.Metrics.Enabled {
				registerMetricsServer(lc, cfg.Metrics.Addr, registerer)
			}
		}),
	}

	if cfg.Cluster.Enabled {
		opts = append(opts,
			fx.Provide(func() cluster.MemberDirectory { return cluster.NewStaticDirectory(nil) }),
			fx.Supply(cluster.Config{
				Enabled:           cfg.Cluster.Enabled,
				CooldownCacheSize: cfg.Cluster.CooldownCacheSize,
				Cooldown:          cfg.Cluster.Cooldown.Duration,
			}),
			cluster.Module(),
			fx.Provide(func(r *cluster.Router) peer.Cluster { return r }),
		)
	}

	return fx.New(opts...)
}

// registerIngress starts the socket's read loop for the lifetime of the fx
// application. Turning a raw datagram into a (remote identity, verb,
// packetID) triple requires the handshake and framing layer that sits in
// front of the path manager; that layer is what would call
// session.Manager.GetOrCreate and Peer.Received once a datagram is
// authenticated and decoded. Decoding is out of scope here, but the read
// loop still runs so NoteReceived-driven liveness (via that future layer)
// and OS-level backpressure behave the way they would in a full node.
func registerIngress(lc fx.Lifecycle, sock *udppath.Socket, mgr *session.Manager) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := sock.ReadLoop(ctx, func(d udppath.Datagram) {
					logger.Debug("datagram received", "from", d.From.String(), "bytes", len(d.Data))
				}); err != nil && ctx.Err() == nil {
					logger.Warn("ingress read loop exited", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})

	_ = mgr // held so future handshake/dispatch wiring has the manager in scope
}

// registerMetricsServer starts a plain net/http server exposing registerer
// as Prometheus text format, stopped on the same fx lifecycle as everything
// else.
func registerMetricsServer(lc fx.Lifecycle, addr string, registerer *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registerer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("metrics listen %s: %w", addr, err)
			}
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Warn("metrics server exited", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := config.Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// loadOrCreateIdentity reads a PEM-encoded Ed25519 private key from path.
// If path is empty it returns a fresh identity without persisting it; if
// the file does not yet exist it generates one and writes it to path.
func loadOrCreateIdentity(path string) (identity.Identity, error) {
	if path == "" {
		return identity.Generate()
	}

	data, err := os.ReadFile(path)
	if err == nil {
		block, _ := pem.Decode(data)
		if block == nil || block.Type != "OVERLAY PRIVATE KEY" {
			return identity.Identity{}, fmt.Errorf("%s: not a PEM overlay private key", path)
		}
		return identity.FromPrivateKey(ed25519.PrivateKey(block.Bytes))
	}
	if !os.IsNotExist(err) {
		return identity.Identity{}, err
	}

	id, genErr := identity.Generate()
	if genErr != nil {
		return identity.Identity{}, genErr
	}
	block := &pem.Block{Type: "OVERLAY PRIVATE KEY", Bytes: id.PrivateKeyBytes()}
	if writeErr := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); writeErr != nil {
		return identity.Identity{}, fmt.Errorf("persist identity to %s: %w", path, writeErr)
	}
	logger.Info("generated new identity", "path", path)
	return id, nil
}

func listenPort(listenAddr string) int {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return 0
	}
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port
}

func setupLogging(cfg config.LogConfig) error {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	target := os.Stderr
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		target = f
	}

	log.SetDefault(slog.New(slog.NewTextHandler(target, &slog.HandlerOptions{Level: level})))
	return nil
}

func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func waitForSignal() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
}
