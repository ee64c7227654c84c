package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "List known peers",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		node := openNode(ctx)

		peers, err := node.Ledger.Peers(ctx)
		if err != nil {
			fatal("Failed to read peers", err)
		}
		if len(peers) == 0 {
			fmt.Println("No known peers.")
			return
		}
		for _, p := range peers {
			fmt.Println(p)
		}
	},
}

var peersAddCmd = &cobra.Command{
	Use:   "add ADDR",
	Short: "Remember a peer",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		node := openNode(ctx)

		if err := node.Ledger.RememberPeer(ctx, args[0]); err != nil {
			fatal("Failed to add peer", err)
		}
		fmt.Printf("Peer %s remembered.\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(peersCmd)
	peersCmd.AddCommand(peersAddCmd)
}
