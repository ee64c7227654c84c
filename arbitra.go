package arbitra

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/arbitra/internal/platform"
	"github.com/aretw0/arbitra/pkg/store"
)

// Version exposes the version of the library.
// See version.go for the implementation using go:embed.

// --- Types ---

// Node is a fully wired arbitra instance: store, ledger and metrics.
type Node = platform.Node

// Config is the file and environment configuration of a node.
type Config = platform.Config

// --- Configuration ---

// Option defines a functional option for configuring a node.
type Option = platform.Option

// WithConfig uses cfg instead of loading arbitra.yaml, .env and the environment.
func WithConfig(cfg Config) Option {
	return platform.WithConfig(cfg)
}

// WithConfigFile reads configuration from path.
func WithConfigFile(path string) Option {
	return platform.WithConfigFile(path)
}

// WithDataDir overrides the application data root.
func WithDataDir(dir string) Option {
	return platform.WithDataDir(dir)
}

// WithNamespace overrides the directory created under the data root.
func WithNamespace(ns string) Option {
	return platform.WithNamespace(ns)
}

// WithOrigin sets the "from" field of outgoing messages.
func WithOrigin(origin string) Option {
	return platform.WithOrigin(origin)
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRegisterer enables integrity metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return platform.WithRegisterer(reg)
}

// WithWatcherErrorHandler receives runtime failures of store watchers.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithForceTemp forces the data root into the temp directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithReadOnly opens the store read-only.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the sandbox applied under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New builds a node.
func New(ctx context.Context, opts ...Option) (*Node, error) {
	return platform.New(ctx, opts...)
}

// OpenStore opens only the record store.
func OpenStore(ctx context.Context, opts ...Option) (*store.Store, error) {
	return platform.NewStore(ctx, opts...)
}

// LoadConfig layers defaults, a YAML file, .env and the environment.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return platform.DefaultConfig()
}

// --- Safety & Utils ---

// ResolveDataRoot determines the actual data root based on safety rules.
func ResolveDataRoot(root string, forceTemp bool) string {
	return platform.ResolveDataRoot(root, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}
