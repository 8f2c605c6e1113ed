// Package cmd defines and implements the CLI commands for the webharvest
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webharvest",
		Short: "A bounded single-origin web crawler feeding an ingestion sink.",
		Long: `webharvest crawls a site starting from a seed URL, renders each page
in a headless browser, extracts clean text, discovers linked PDF documents,
and emits the results as ordered batches of documents to a downstream sink.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
