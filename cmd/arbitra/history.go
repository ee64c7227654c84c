package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent transactions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		node := openNode(ctx)

		txs, err := node.Ledger.History(ctx)
		if err != nil {
			fatal("Failed to read history", err)
		}

		if historyJSON {
			printJSON(txs)
			return
		}
		if len(txs) == 0 {
			fmt.Println("No transactions recorded.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tSENDER\tRECEIVER\tAMOUNT")
		for _, tx := range txs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tx.At().Format(time.RFC3339), tx.Sender, tx.Receiver, tx.Amount)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output in JSON format")
}
