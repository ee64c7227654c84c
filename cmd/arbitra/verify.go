package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbitra/pkg/core"
	"github.com/aretw0/arbitra/pkg/integrity"
)

var verifyCmd = &cobra.Command{
	Use:   "verify FILE|-",
	Short: "Check the digest of a message",
	Long:  `Parse a message from FILE (or stdin with "-") and check its header hash against its body.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			fatal("Failed to read message", err)
		}

		v, err := integrity.VerifyMessage(data)
		if err != nil {
			fatal("Invalid message", err)
		}

		h := v.Message.Header
		if !v.KnownType {
			fmt.Printf("warning: unknown message type %q\n", h.Type)
		}
		if !v.Verified() {
			fatal("Verification failed", fmt.Errorf("%w: header %s, body %s", core.ErrDigestMismatch, h.Hash, v.Computed))
		}
		fmt.Printf("%s message from %s verified (%s).\n", h.Type, h.From, v.Computed)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
