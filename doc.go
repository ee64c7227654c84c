// Package arbitra is the composition root of an arbitra node.
//
// A node keeps its state in a small record store, one JSON document per
// name under the user's application data directory, and exchanges
// transactions with peers over TCP. Every message carries the SHA-256 of
// its body so the receiver can detect corruption in transit.
//
// Components:
//
//   - pkg/store: keyed and list documents, merge-on-write for arrays, atomic
//     replace, per-name serialization and a change feed.
//   - pkg/integrity: message digests, the message endpoint, the hash oracle
//     and a client for both.
//   - pkg/ledger: build, record, transmit and receive transactions.
//
// Usage:
//
//	node, err := arbitra.New(ctx,
//		arbitra.WithDataDir(dir),
//		arbitra.WithLogger(logger),
//	)
//
//	msg, tx, err := node.Ledger.BuildTransaction("me", "also me", core.NewAmount(12))
//	ack, err := node.Ledger.Submit(ctx, "127.0.0.1:8081", tx)
package arbitra
