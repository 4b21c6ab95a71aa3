package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mzaruba/fvemon"
	"github.com/mzaruba/fvemon/config"
	"github.com/mzaruba/fvemon/internal/fetch"
)

// checkCmd performs a one-shot fetch+parse against the configured endpoint.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the endpoint once",
	Long: `Perform a single fetch+parse cycle against the configured endpoint
without starting the daemon.

This is the same validation a setup step should run before committing a
configuration: it distinguishes rejected credentials from an unreachable
endpoint and from an unexpected response shape.

Exit codes:
  0 - Endpoint reachable, credentials accepted, response parsed
  1 - Probe failed (reason printed to stderr)

Example:
  fvemon check -c fvemon.yaml`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = checkCmd.MarkFlagRequired("config")
}

func runCheck(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	client := fetch.NewClient()
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout.Duration())
	defer cancel()

	res := client.Fetch(ctx, fetch.Request{
		URL:      cfg.Endpoint.URL,
		ClientID: cfg.Endpoint.ClientID,
		Token:    cfg.Endpoint.Token,
	})
	if res.Err != nil {
		switch res.Err.Kind {
		case fetch.KindAuthRejected:
			return fmt.Errorf("credentials rejected: %w", res.Err)
		case fetch.KindUnreachable:
			return fmt.Errorf("endpoint unreachable: %w", res.Err)
		default:
			return fmt.Errorf("unexpected response: %w", res.Err)
		}
	}

	snapshot, err := fvemon.Parse(res.Body)
	if err != nil {
		return fmt.Errorf("response did not parse (wrong endpoint or credentials?): %w", err)
	}

	fmt.Printf("Endpoint OK (%s, %d metrics)\n", res.Latency.Round(time.Millisecond), snapshot.Len())
	if name, ok := snapshot.Text(fvemon.UserName); ok {
		fmt.Printf("  System:  %s\n", name)
	}
	for _, mv := range snapshot.Metrics() {
		if mv.Value.Kind == fvemon.KindString {
			fmt.Printf("  %-22s %s\n", mv.Field.Key, mv.Value.Str)
		} else {
			fmt.Printf("  %-22s %g %s\n", mv.Field.Key, mv.Value.Num, mv.Field.Unit)
		}
	}

	return nil
}
