package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbitra/pkg/adapters/lifecycle"
)

var watchCmd = &cobra.Command{
	Use:   "watch [PATTERN]",
	Short: "Print changes to documents",
	Long:  `Print every change to documents whose name matches PATTERN (glob, default "*") until interrupted.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pattern := "*"
		if len(args) == 1 {
			pattern = args[0]
		}

		ctx, cancel := signalContext()
		defer cancel()
		node := openNode(ctx)

		source := lifecycle.NewDocumentSource(node.Store, pattern)
		if err := source.Start(ctx); err != nil {
			fatal("Failed to watch", err)
		}

		fmt.Printf("Watching %s for %q. Press Ctrl+C to stop.\n", node.Store.Path, pattern)
		for e := range source.Events() {
			fmt.Printf("%s %s\n", time.Now().Format(time.TimeOnly), e)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
