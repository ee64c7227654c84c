package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbitra/pkg/integrity"
)

var hashPayload string

var hashCmd = &cobra.Command{
	Use:   "hash [ADDR]",
	Short: "Ask a hash oracle for the digest of a payload",
	Long: `Send a payload to a hash oracle and print the digest it answers with,
next to the digest computed locally.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()

		var addr string
		if len(args) == 1 {
			addr = args[0]
		} else {
			addr = openNode(ctx).Config.OracleListen
		}

		client := integrity.NewClient(nil)
		digest, err := client.RequestDigest(ctx, addr, []byte(hashPayload))
		if err != nil {
			fatal("Failed to query oracle", err)
		}

		local := integrity.Digest([]byte(hashPayload))
		fmt.Printf("remote %s\nlocal  %s\n", digest, local)
		if digest != local {
			fatal("Digest mismatch", fmt.Errorf("oracle at %s disagrees", addr))
		}
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)
	hashCmd.Flags().StringVar(&hashPayload, "payload", integrity.DefaultOraclePayload, "Payload to hash")
}
