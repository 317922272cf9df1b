// Package cmd defines and implements the CLI commands for crawlkit.
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
		Use:   "crawlkit",
		Short: "A bounded, polite, parallel web crawler.",
		Long: `crawlkit crawls a single domain starting from a seed URL, fetching
pages with a fixed-size worker pool, deduplicating content by fingerprint,
and recording results and per-attempt logs in a relational store. The
crawl stops when the frontier drains or the page budget is reached.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	cmd.AddCommand(newCrawlCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
