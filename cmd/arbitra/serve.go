package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/arbitra"
)

var (
	serveListen       string
	serveOracle       bool
	serveOracleListen string
	serveMetrics      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept transactions from peers",
	Long: `Run the message endpoint. Every received message is checked against its
digest and verified transactions are added to the local history.
With --oracle the hash oracle runs too.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()

		reg := prometheus.NewRegistry()
		node := openNode(ctx, arbitra.WithRegisterer(reg))
		if serveListen != "" {
			node.Config.Listen = serveListen
		}
		if serveOracleListen != "" {
			node.Config.OracleListen = serveOracleListen
		}

		if serveMetrics != "" {
			stop := serveMetricsEndpoint(serveMetrics, reg)
			defer stop()
		}

		if err := node.Serve(ctx, node.Servers(serveOracle)...); err != nil {
			fatal("Server failed", err)
		}
	},
}

func serveMetricsEndpoint(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics endpoint failed", "addr", addr, "error", err)
		}
	}()
	slog.Info("metrics endpoint listening", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Message endpoint address (default from config, 127.0.0.1:8081)")
	serveCmd.Flags().BoolVar(&serveOracle, "oracle", false, "Also run the hash oracle")
	serveCmd.Flags().StringVar(&serveOracleListen, "oracle-listen", "", "Hash oracle address (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().StringVar(&serveMetrics, "metrics", "", "Expose Prometheus metrics on this address")
}
