// Package main is the entry point for the fvemon CLI.
//
// fvemon can be used either as a library (SDK) or as a standalone daemon
// with YAML configuration. This CLI provides the standalone approach.
//
// Usage:
//
//	fvemon run -c config.yaml      # Poll the endpoint until interrupted
//	fvemon check -c config.yaml    # One-shot connectivity probe
//	fvemon validate -c config.yaml # Validate configuration
//	fvemon version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "fvemon",
	Short: "A polling monitor for FVE photovoltaic systems",
	Long: `fvemon polls a photovoltaic monitoring endpoint at a configurable
interval, extracts its metrics, and exposes the latest values together with
the health of the poll loop.

Quick start:
  1. Create a config file (fvemon.yaml)
  2. Probe connectivity: fvemon check -c fvemon.yaml
  3. Run: fvemon run -c fvemon.yaml

Example config:
  endpoint:
    url: https://monitor.example.com/data
    client_id: client-1
    token: ${FVE_TOKEN}
  poll_interval: 5s
  status:
    addr: ":8080"`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this fvemon binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fvemon %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
