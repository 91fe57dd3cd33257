package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/lbhealth/config"
	"github.com/angeloszaimis/lbhealth/internal/handler"
	"github.com/angeloszaimis/lbhealth/internal/healthcheck"
	"github.com/angeloszaimis/lbhealth/internal/killswitch"
	"github.com/angeloszaimis/lbhealth/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func newProbeHandler(cfg *config.Config, log *slog.Logger, collector *metrics.Collector) *handler.ProbeHandler {
	runner := healthcheck.NewRunner(cfg.Checks.Shell, cfg.CheckTimeout(), log)

	return handler.NewProbeHandler(
		log,
		killswitch.File(cfg.KillSwitch.Path),
		config.CheckSource(cfg.Checks.File, log),
		runner,
		collector,
	)
}
