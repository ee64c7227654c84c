package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbitra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of arbitra",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("arbitra version %s\n", strings.TrimSpace(arbitra.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
