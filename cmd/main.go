package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "deal-sentinel",
	Short: "A CLI for managing the Deal Sentinel services",
	Long:  `Deal Sentinel ingests market and registry feeds, extracts structured deal signals, and serves the curated intelligence over HTTP.`,
}

func main() {

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}
