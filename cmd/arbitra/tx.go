package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbitra/pkg/core"
	"github.com/aretw0/arbitra/pkg/integrity"
)

var (
	txFrom   string
	txTo     string
	txAmount string
	txSend   string
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Create a transaction",
	Long: `Create a transaction and record it in the local history. With --send the
transaction is also transmitted, with its digest, to the peer at ADDR and the
peer's verdict is printed. Without --send the message is printed.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		amount, err := core.ParseAmount(txAmount)
		if err != nil {
			fatal("Invalid amount", err)
		}

		ctx, cancel := signalContext()
		defer cancel()
		node := openNode(ctx)

		msg, tx, err := node.Ledger.BuildTransaction(txFrom, txTo, amount)
		if err != nil {
			fatal("Invalid transaction", err)
		}

		if txSend == "" {
			if err := node.Ledger.Record(ctx, tx); err != nil {
				fatal("Failed to record transaction", err)
			}
			if err := writeMessage(os.Stdout, msg); err != nil {
				fatal("Error encoding message", err)
			}
			return
		}

		sendCtx, sendCancel := context.WithTimeout(ctx, 30*time.Second)
		defer sendCancel()
		ack, err := node.Ledger.Submit(sendCtx, txSend, tx)
		if err != nil {
			fatal("Transaction recorded locally but not delivered", err)
		}
		fmt.Printf("Transaction %s delivered to %s (%s).\n", ack.Hash, txSend, ack.Status)
	},
}

// writeMessage prints the compact wire form, the only form whose body
// bytes still match the header hash.
func writeMessage(w io.Writer, m integrity.Message) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.Flags().StringVar(&txFrom, "from", "", "Sender")
	txCmd.Flags().StringVar(&txTo, "to", "", "Receiver")
	txCmd.Flags().StringVar(&txAmount, "amount", "", "Amount, e.g. 12 or 0.25")
	txCmd.Flags().StringVar(&txSend, "send", "", "Peer message endpoint to deliver to (host:port)")
	txCmd.MarkFlagRequired("from")
	txCmd.MarkFlagRequired("to")
	txCmd.MarkFlagRequired("amount")
}
