package platform

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/arbitra/pkg/integrity"
	"github.com/aretw0/arbitra/pkg/ledger"
	"github.com/aretw0/arbitra/pkg/store"
)

// Node is a fully wired arbitra instance.
type Node struct {
	Config  Config
	Store   *store.Store
	Ledger  *ledger.Service
	Metrics *integrity.Metrics // nil unless a registerer was given
	Logger  *slog.Logger
}

// New resolves configuration and builds the store, metrics and ledger.
func New(ctx context.Context, opts ...Option) (*Node, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := resolveConfig(o)
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg, o, logger)
	if err != nil {
		return nil, err
	}

	var metrics *integrity.Metrics
	if o.registerer != nil {
		metrics, err = integrity.NewMetrics(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	client := integrity.NewClient(logger)
	client.MaxFrameSize = cfg.MaxFrameSize

	svc, err := ledger.NewService(st,
		ledger.WithLogger(logger),
		ledger.WithOrigin(cfg.Origin),
		ledger.WithClient(client),
	)
	if err != nil {
		return nil, err
	}

	return &Node{Config: cfg, Store: st, Ledger: svc, Metrics: metrics, Logger: logger}, nil
}

func resolveConfig(o *options) (Config, error) {
	var cfg Config
	if o.config != nil {
		cfg = *o.config
	} else {
		loaded, err := LoadConfig(o.configPath)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	if o.namespace != "" {
		cfg.Namespace = o.namespace
	}
	if o.origin != "" {
		cfg.Origin = o.origin
	}
	return cfg, nil
}

// NewStore resolves configuration and opens only the store.
func NewStore(ctx context.Context, opts ...Option) (*store.Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := resolveConfig(o)
	if err != nil {
		return nil, err
	}
	return openStore(ctx, cfg, o, logger)
}

// openStore resolves the data root, applying the dev sandbox, and
// initializes the store.
func openStore(ctx context.Context, cfg Config, o *options, logger *slog.Logger) (*store.Store, error) {
	root := cfg.DataDir
	if root == "" {
		def, err := DefaultDataRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to locate application data: %w", err)
		}
		root = def
	}

	// Read-only access is safe, so it bypasses the sandbox.
	bypass := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypass)
	resolved := ResolveDataRoot(root, useTemp)

	if IsDevRun() {
		switch {
		case o.readOnly:
			logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "root", resolved)
		case bypass:
			logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "root", resolved)
		default:
			logger.Debug("running in SAFE mode (dev sandbox enabled)", "root", resolved)
		}
	}
	if useTemp && resolved != root {
		logger.Warn("data root re-rooted into temp directory", "original", root, "resolved", resolved)
	}

	st := store.New(store.Config{
		Root:         resolved,
		Namespace:    cfg.Namespace,
		Logger:       logger,
		ReadOnly:     o.readOnly,
		ErrorHandler: o.errorHandler,
	})
	if err := st.Initialize(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

// Servers builds the message endpoint, backed by the ledger, and optionally
// the hash oracle.
func (n *Node) Servers(withOracle bool) []*integrity.Server {
	servers := []*integrity.Server{
		integrity.NewServer(integrity.ServerConfig{
			Addr:           n.Config.Listen,
			Logger:         n.Logger,
			Metrics:        n.Metrics,
			Handler:        n.Ledger,
			MaxFrameSize:   n.Config.MaxFrameSize,
			MaxConnections: n.Config.MaxConnections,
		}),
	}
	if withOracle {
		servers = append(servers, integrity.NewOracle(integrity.ServerConfig{
			Addr:           n.Config.OracleListen,
			Logger:         n.Logger,
			Metrics:        n.Metrics,
			MaxConnections: n.Config.MaxConnections,
		}))
	}
	return servers
}

// Serve runs servers until ctx is done or one of them fails, in which case
// the others are stopped too.
func (n *Node) Serve(ctx context.Context, servers ...*integrity.Server) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			return srv.ListenAndServe(ctx)
		})
	}
	return g.Wait()
}
