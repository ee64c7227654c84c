package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	getFallback string
	getYAML     bool
)

var getCmd = &cobra.Command{
	Use:   "get NAME KEY",
	Short: "Read one key of a keyed document",
	Long:  `Read one key of a keyed document. Prints the fallback (or null) when the document or key is absent.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		var fallback any
		if getFallback != "" {
			v, err := parseJSON(getFallback)
			if err != nil {
				fatal("Invalid fallback", err)
			}
			fallback = v
		}

		node := openNode(ctx)
		value, err := node.Store.Get(ctx, args[0], args[1], fallback)
		if err != nil {
			fatal("Failed to read", err)
		}

		if getYAML {
			out, err := yaml.Marshal(value)
			if err != nil {
				fatal("Error encoding YAML", err)
			}
			fmt.Print(string(out))
			return
		}
		printJSON(value)
	},
}

var getAllFallback string

var getAllCmd = &cobra.Command{
	Use:   "getall NAME",
	Short: "Print a whole document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		node := openNode(ctx)

		var fallback []byte
		if getAllFallback != "" {
			if _, err := parseJSON(getAllFallback); err != nil {
				fatal("Invalid fallback", err)
			}
			fallback = []byte(getAllFallback)
		}

		data, err := node.Store.GetAll(ctx, args[0], fallback)
		if err != nil {
			fatal("Failed to read", err)
		}
		if data == nil {
			data = []byte("null")
		}
		fmt.Fprintln(os.Stdout, string(data))
	},
}

var putCmd = &cobra.Command{
	Use:   "put NAME KEY JSON",
	Short: "Write one key of a keyed document",
	Long: `Write one key of a keyed document. When the key already holds an array and
the new value is an array too, the stored value becomes their union.`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		value, err := parseJSON(args[2])
		if err != nil {
			fatal("Invalid value", err)
		}

		node := openNode(ctx)
		if err := node.Store.Put(ctx, args[0], args[1], value); err != nil {
			fatal("Failed to write", err)
		}
		fmt.Printf("Stored %s in '%s'.\n", args[1], args[0])
	},
}

var putAllCmd = &cobra.Command{
	Use:   "putall NAME JSON",
	Short: "Replace a whole document",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		doc, err := parseJSON(args[1])
		if err != nil {
			fatal("Invalid document", err)
		}

		node := openNode(ctx)
		if err := node.Store.PutAll(ctx, args[0], doc); err != nil {
			fatal("Failed to write", err)
		}
		fmt.Printf("Document '%s' replaced.\n", args[0])
	},
}

var appendCmd = &cobra.Command{
	Use:   "append NAME JSON",
	Short: "Append a record to a list document",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		record, err := parseJSON(args[1])
		if err != nil {
			fatal("Invalid record", err)
		}

		node := openNode(ctx)
		if err := node.Store.Append(ctx, args[0], record); err != nil {
			fatal("Failed to append", err)
		}
		fmt.Printf("Record appended to '%s'.\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(getCmd, getAllCmd, putCmd, putAllCmd, appendCmd)
	getCmd.Flags().StringVar(&getFallback, "fallback", "", "JSON value printed when the key is absent")
	getCmd.Flags().BoolVar(&getYAML, "yaml", false, "Output in YAML format")
	getAllCmd.Flags().StringVar(&getAllFallback, "fallback", "", "JSON printed when the document is absent")
}
