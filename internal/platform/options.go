package platform

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// options holds the internal configuration for an arbitra node.
type options struct {
	config       *Config
	configPath   string
	dataDir      string
	namespace    string
	origin       string
	logger       *slog.Logger
	registerer   prometheus.Registerer
	errorHandler func(error)
	forceTemp    bool
	readOnly     bool
	devSafety    bool
}

// Option defines a functional option for configuring a node.
type Option func(*options)

func defaultOptions() *options {
	return &options{devSafety: true}
}

// WithConfig uses cfg instead of loading configuration from disk.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = &cfg
	}
}

// WithConfigFile reads configuration from path instead of DefaultConfigFile.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithDataDir overrides the application data root.
func WithDataDir(dir string) Option {
	return func(o *options) {
		o.dataDir = dir
	}
}

// WithNamespace overrides the directory created under the data root.
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithOrigin sets the "from" field of outgoing messages.
func WithOrigin(origin string) Option {
	return func(o *options) {
		o.origin = origin
	}
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegisterer registers integrity metrics with reg. Without it no metrics are collected.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithWatcherErrorHandler receives runtime failures of store watchers.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithForceTemp forces the data root into the temp directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithReadOnly opens the store read-only. Mutations return core.ErrReadOnly
// and the dev sandbox is bypassed.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithDevSafety controls the sandbox applied under `go run` and `go test`.
// It is on by default: the data root is re-rooted into the temp directory.
//
// CAUTION: disabling it lets dev runs touch the real application data.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
