package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/BlyZeDev/tempocal/internal/config"
	"github.com/BlyZeDev/tempocal/internal/scheduler"
)

var runCmd = LeafCommand{
	Use:   "run",
	Short: "Run the sync daemon until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, v, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runDaemon(cmd, cfg, v)
	},
}.Build()

func runDaemon(cmd *cobra.Command, cfg *config.Config, v *viper.Viper) error {
	app := buildApp(cfg)
	defer func() { _ = app.log.Sync() }()

	sched, err := scheduler.New(app.engine, app.log, cfg.Sync.Interval, cfg.Sync.Cron)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Credential edits take effect on the next pass; force one right away so
	// a fixed token does not wait out the interval.
	config.Watch(v, cfg, app.log, func(_ *config.Config, credentialsChanged bool) {
		if credentialsChanged {
			sched.TriggerNow()
		}
	})

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(fmt.Sprintf("syncing every %s, press Ctrl+C to stop", Primary(intervalLabel(cfg)))))
	app.log.Info("daemon started", zap.Duration("interval", cfg.Sync.Interval), zap.String("cron", cfg.Sync.Cron))

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Silent("stopped"))
	return nil
}

func intervalLabel(cfg *config.Config) string {
	if cfg.Sync.Cron != "" {
		return "cron " + cfg.Sync.Cron
	}
	return cfg.Sync.Interval.String()
}
