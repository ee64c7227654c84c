package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/aretw0/arbitra"
	"github.com/aretw0/arbitra/pkg/core"
	"github.com/aretw0/arbitra/pkg/integrity"
)

func main() {
	count := flag.Int("count", 1000, "Number of transactions to record")
	send := flag.Int("send", 200, "Number of messages to send over loopback")
	keep := flag.Bool("keep", false, "Keep the benchmark data directory after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "arbitra_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	cfg := arbitra.DefaultConfig()
	cfg.Listen = "127.0.0.1:0"
	node, err := arbitra.New(ctx, arbitra.WithConfig(cfg), arbitra.WithDataDir(benchDir), arbitra.WithLogger(logger))
	if err != nil {
		panic(err)
	}

	// 1. Local appends: every append rewrites the whole history document.
	fmt.Printf("Recording %d transactions in %s...\n", *count, node.Store.Path)
	start := time.Now()
	for i := 0; i < *count; i++ {
		tx, err := node.Ledger.NewTransaction("bench", fmt.Sprintf("peer-%d", i%10), core.NewAmount(int64(i+1)))
		if err != nil {
			panic(err)
		}
		if err := node.Ledger.Record(ctx, tx); err != nil {
			panic(err)
		}
	}
	recordTook := time.Since(start)

	start = time.Now()
	history, err := node.Ledger.History(ctx)
	if err != nil {
		panic(err)
	}
	readTook := time.Since(start)

	// 2. Integrity channel round trips on one connection.
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		panic(err)
	}
	srvCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	srv := integrity.NewServer(integrity.ServerConfig{Logger: logger})
	go func() { done <- srv.Serve(srvCtx, ln) }()

	conn, err := integrity.NewClient(logger).Dial(ctx, ln.Addr().String())
	if err != nil {
		panic(err)
	}
	msg, _, err := node.Ledger.BuildTransaction("bench", "peer", core.NewAmount(1))
	if err != nil {
		panic(err)
	}

	start = time.Now()
	for i := 0; i < *send; i++ {
		if _, err := conn.Send(ctx, msg); err != nil {
			panic(err)
		}
	}
	sendTook := time.Since(start)
	conn.Close()
	cancel()
	<-done

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result:\n")
	fmt.Printf("  Record:  %v for %d transactions (%v/op)\n", recordTook, *count, perOp(recordTook, *count))
	fmt.Printf("  History: %v (Items: %d)\n", readTook, len(history))
	fmt.Printf("  Send:    %v for %d messages (%v/op)\n", sendTook, *send, perOp(sendTook, *send))
	fmt.Printf("--------------------------------------------------\n")
}

func perOp(d time.Duration, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return d / time.Duration(n)
}
