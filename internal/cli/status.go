package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BlyZeDev/tempocal/internal/config"
	"github.com/BlyZeDev/tempocal/internal/planner"
	"github.com/BlyZeDev/tempocal/internal/tracker"
)

var statusCmd = LeafCommand{
	Use:   "status",
	Short: "Show the sync targets and check connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		app := buildApp(cfg)
		defer func() { _ = app.log.Sync() }()

		return runStatus(cmd, cmd.Context(), cfg, app)
	},
}.Build()

func runStatus(cmd *cobra.Command, ctx context.Context, cfg *config.Config, app *app) error {
	w := cmd.OutOrStdout()

	_, _ = fmt.Fprintf(w, "%s %s\n", Primary("planner:"), Text(cfg.Tempo.BaseURL))
	_, _ = fmt.Fprintf(w, "%s %s\n", Primary("tracker:"), Text(cfg.Jira.BaseURL))
	_, _ = fmt.Fprintf(w, "%s %s\n", Primary("calendar:"), Text(cfg.Calendar.Path))
	_, _ = fmt.Fprintf(w, "%s %s\n\n", Primary("schedule:"), Text(intervalLabel(cfg)))

	plannerOK := reportPing(ctx, w, "Tempo", app.planner.Ping)
	trackerOK := reportPing(ctx, w, "Jira", app.tracker.Ping)

	if !plannerOK || !trackerOK {
		return fmt.Errorf("one or more remotes are unreachable")
	}
	return nil
}

func reportPing(ctx context.Context, w io.Writer, name string, ping func(context.Context) error) bool {
	err := ping(ctx)
	switch {
	case err == nil:
		_, _ = fmt.Fprintf(w, "%s %s\n", Primary(name+":"), Info("ok"))
		return true
	case errors.Is(err, planner.ErrUnauthorized) || errors.Is(err, tracker.ErrUnauthorized):
		_, _ = fmt.Fprintf(w, "%s %s\n", Primary(name+":"), Error("unauthorized, check the configured credentials"))
		return false
	default:
		_, _ = fmt.Fprintf(w, "%s %s\n", Primary(name+":"), Error("unreachable: "+err.Error()))
		return false
	}
}
