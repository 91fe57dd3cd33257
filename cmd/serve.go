package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/lbhealth/config"
	"github.com/angeloszaimis/lbhealth/internal/httpserver"
	"github.com/angeloszaimis/lbhealth/internal/metrics"
	"github.com/angeloszaimis/lbhealth/pkg/logger"
)

const metricsBufferSize = 1000

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a long-lived HTTP server answering health probes",
		Long: `serve answers every request with a fresh run of the configured checks.
Any path behaves like "/" except /verbose, which always includes check
output, and /metrics, which reports probe and check statistics as JSON.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringP("address", "a", ":9000", "Address to listen on")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlag("server.address", cmd.Flags().Lookup("address")); err != nil {
		return fmt.Errorf("bind flag address: %w", err)
	}

	cfg, err := config.Load(map[string]any{"logging.level": config.LogLevelInfo})
	if err != nil {
		return err
	}

	log := logger.New(os.Stderr, cfg.Logging.Level, true, cfg.Server.Environment)

	ctx := cmd.Context()

	collector := metrics.NewCollector(metricsBufferSize, log)
	collector.Start(ctx)

	probe := newProbeHandler(cfg, log, collector)

	srv, err := httpserver.New(ctx, cfg.Server.Address, setupRouter(probe, collector), cfg.CheckTimeout())
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		return err
	}

	log.Info("Serving health probes",
		slog.String("address", srv.Addr()),
		slog.String("checks", cfg.Checks.File),
		slog.String("kill_switch", cfg.KillSwitch.Path),
		slog.Duration("timeout", cfg.CheckTimeout()))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
			return err
		}
		return nil
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting server", slog.Any("err", err))
		}
		return err
	}
}
