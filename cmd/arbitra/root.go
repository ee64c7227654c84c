package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbitra"
)

var (
	verbose    bool
	configPath string
	dataDir    string
	namespace  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "arbitra",
	Short: "A local record store and integrity-checked transaction channel",
	Long: `Arbitra keeps small JSON documents under your application data directory
and exchanges transactions with peers over TCP. Every message carries the
SHA-256 of its body so the receiver can detect corruption in transit.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./arbitra.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Application data root (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "", "Directory under the data root holding the documents")
}

// nodeOptions turns the persistent flags into node options.
func nodeOptions(extra ...arbitra.Option) []arbitra.Option {
	opts := []arbitra.Option{arbitra.WithLogger(slog.Default())}
	if configPath != "" {
		opts = append(opts, arbitra.WithConfigFile(configPath))
	}
	if dataDir != "" {
		opts = append(opts, arbitra.WithDataDir(dataDir))
	}
	if namespace != "" {
		opts = append(opts, arbitra.WithNamespace(namespace))
	}
	return append(opts, extra...)
}

func openNode(ctx context.Context, extra ...arbitra.Option) *arbitra.Node {
	node, err := arbitra.New(ctx, nodeOptions(extra...)...)
	if err != nil {
		fatal("Failed to initialize arbitra", err)
	}
	return node
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// parseJSON decodes a command-line JSON argument, keeping numbers exact.
func parseJSON(arg string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(arg))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON %q: %w", arg, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid JSON %q: trailing data", arg)
	}
	return v, nil
}

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fatal("Error encoding JSON", err)
	}
}
