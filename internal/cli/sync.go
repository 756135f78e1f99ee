package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BlyZeDev/tempocal/internal/planner"
	"github.com/BlyZeDev/tempocal/internal/tracker"
)

var syncCmd = LeafCommand{
	Use:   "sync",
	Short: "Run a single sync pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		app := buildApp(cfg)
		defer func() { _ = app.log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runSync(cmd, ctx, app)
	},
}.Build()

func runSync(cmd *cobra.Command, ctx context.Context, app *app) error {
	w := cmd.OutOrStdout()

	sum, err := app.engine.Reconcile(ctx)
	switch {
	case errors.Is(err, planner.ErrUnauthorized) || errors.Is(err, tracker.ErrUnauthorized):
		return fmt.Errorf("sync rejected by the remote, check the configured credentials: %w", err)
	case err != nil:
		return err
	}

	if sum.Changed() == 0 {
		_, _ = fmt.Fprintf(w, "%s\n", Silent("calendar already up to date"))
	} else {
		_, _ = fmt.Fprintf(w, "%s\n", Text(fmt.Sprintf(
			"sync complete: %s created, %s removed",
			Primary(fmt.Sprintf("%d", sum.Created)),
			Primary(fmt.Sprintf("%d", sum.Deleted)))))
	}
	if sum.Failed > 0 {
		_, _ = fmt.Fprintf(w, "%s\n", Warning(fmt.Sprintf("%d operations failed, see the log", sum.Failed)))
	}
	if sum.Partial {
		_, _ = fmt.Fprintf(w, "%s\n", Warning("planner returned partial data, stale cleanup was skipped"))
	}
	return nil
}
