package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/BlyZeDev/tempocal/internal/calendar"
	"github.com/BlyZeDev/tempocal/internal/config"
	"github.com/BlyZeDev/tempocal/internal/engine"
	"github.com/BlyZeDev/tempocal/internal/enrich"
	"github.com/BlyZeDev/tempocal/internal/logging"
	"github.com/BlyZeDev/tempocal/internal/planner"
	"github.com/BlyZeDev/tempocal/internal/tracker"
)

// configPath resolves the config file location from the --config flag,
// falling back to the default per-user path.
func configPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

// loadConfig loads and validates the configuration for a command.
func loadConfig(cmd *cobra.Command) (*config.Config, *viper.Viper, error) {
	path, err := configPath(cmd)
	if err != nil {
		return nil, nil, err
	}
	cfg, v, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w (run 'tempocal config init' to set up)", err)
	}
	return cfg, v, nil
}

// app bundles the wired collaborators for one configuration.
type app struct {
	planner *planner.Client
	tracker *tracker.Client
	engine  *engine.Engine
	log     *zap.Logger
}

// buildApp wires clients, store, resolver and engine from a validated config.
func buildApp(cfg *config.Config) *app {
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	plannerClient := planner.NewClient(cfg.Tempo, log)
	trackerClient := tracker.NewClient(cfg.Jira, log)
	resolver := enrich.NewResolver(trackerClient, log)
	store := calendar.NewFileStore(cfg.Calendar.Path, log)

	eng := engine.New(plannerClient, trackerClient, resolver, store, log,
		engine.WithWindow(cfg.Sync.LookbackDays, cfg.Sync.HorizonDays))

	return &app{
		planner: plannerClient,
		tracker: trackerClient,
		engine:  eng,
		log:     log,
	}
}
