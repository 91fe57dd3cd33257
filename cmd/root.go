package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/lbhealth/config"
	"github.com/angeloszaimis/lbhealth/internal/healthcheck"
	"github.com/angeloszaimis/lbhealth/internal/oneshot"
	"github.com/angeloszaimis/lbhealth/pkg/logger"
)

// flagKeys maps persistent flags onto viper keys.
var flagKeys = map[string]string{
	"config":      "checks.file",
	"kill-switch": "kill_switch.path",
	"log-level":   "logging.level",
	"shell":       "checks.shell",
	"timeout":     "checks.timeout",
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lbhealth [instance]",
		Short: "Answer load-balancer health probes by running check commands",
		Long: `lbhealth reads one HTTP request from stdin, runs every configured check
command concurrently and writes a single response to stdout: 200 when all
checks exit 0, 500 otherwise. Request /verbose to see check output on success.

Run it behind a systemd socket with Accept=yes and StandardInput=socket, or
use "lbhealth serve" to run a standalone HTTP server.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd)
		},
		RunE: runOneShot,
	}

	flags := cmd.PersistentFlags()
	flags.SortFlags = false
	flags.StringP("config", "c", config.DefaultChecksFile, "JSON file with the list of check commands")
	flags.StringP("kill-switch", "k", config.DefaultKillSwitchPath, "If this file exists, every probe fails without running checks")
	flags.StringP("log-level", "l", config.LogLevelError, "Log level: debug, info, warn or error")
	flags.String("shell", healthcheck.DefaultShell, "Shell used to run check commands")
	flags.String("timeout", "30s", "Per-check timeout, 0 to wait forever")
	flags.String("settings", "", "YAML settings file (default: lbhealth.yaml in /etc/lbhealth, ./config or .)")

	cmd.AddCommand(newServeCmd())

	return cmd
}

func bindFlags(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()

	if flags.Changed("settings") {
		path, _ := flags.GetString("settings")
		viper.SetConfigFile(path)
	}

	for name, key := range flagKeys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	return nil
}

// runOneShot serves the single connection handed over on stdin/stdout.
func runOneShot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}

	instance := "0"
	if len(args) > 0 {
		instance = args[0]
	}

	log := logger.New(os.Stderr, cfg.Logging.Level, false, cfg.Server.Environment).
		With(slog.String("instance", instance))

	probe := newProbeHandler(cfg, log, nil)

	return oneshot.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), probe, log)
}
