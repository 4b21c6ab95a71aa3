package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mzaruba/fvemon"
	"github.com/mzaruba/fvemon/config"
)

// newLogger creates the daemon logger from the config's level and format.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// runCmd starts the polling daemon.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the endpoint until interrupted",
	Long: `Start the fvemon polling daemon.

The daemon will:
  - Load configuration from the specified YAML file
  - Poll the monitoring endpoint at the configured interval
  - Serve the status API when status.addr is configured

It runs until interrupted (Ctrl+C) or it receives SIGTERM.

Example:
  fvemon run -c fvemon.yaml
  fvemon run --config /etc/fvemon/config.yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.Log)
	logger.Info("config loaded",
		"endpoint", cfg.Endpoint.URL,
		"poll_interval", cfg.PollInterval.Duration().String(),
	)

	creds, err := fvemon.NewCredentials(cfg.Endpoint.URL, cfg.Endpoint.ClientID, cfg.Endpoint.Token)
	if err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}

	opts := []fvemon.Option{
		fvemon.WithCredentials(creds),
		fvemon.WithPollInterval(cfg.PollInterval.Duration()),
		fvemon.WithRequestTimeout(cfg.RequestTimeout.Duration()),
		fvemon.WithFailureThreshold(cfg.FailureThreshold),
		fvemon.WithLogger(logger),
	}
	if cfg.Status.Addr != "" {
		opts = append(opts, fvemon.WithStatusAddr(cfg.Status.Addr))
	}

	m, err := fvemon.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.Start(ctx); err != nil {
		return fmt.Errorf("monitor error: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
