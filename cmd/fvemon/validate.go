package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzaruba/fvemon/config"
)

// validateCmd validates a config file without touching the network.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate an fvemon configuration file without starting the daemon.

This command parses the YAML, applies environment overrides, expands
variable references and validates all fields. Useful for CI/CD pipelines
or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  fvemon validate -c fvemon.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	statusAPI := "disabled"
	if cfg.Status.Addr != "" {
		statusAPI = cfg.Status.Addr
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Endpoint:        %s\n", cfg.Endpoint.URL)
	fmt.Printf("  Poll interval:   %s\n", cfg.PollInterval.Duration())
	fmt.Printf("  Request timeout: %s\n", cfg.RequestTimeout.Duration())
	fmt.Printf("  Status API:      %s\n", statusAPI)

	return nil
}
