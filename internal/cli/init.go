package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <name>",
		Short: "Create a tracker",
		Long: `Creates a tracker with a "Main Screen" holding the Water and Exercise
buttons. The database is created and migrated on first use.`,
		Args: cobra.ExactArgs(1),
		RunE: appctx.WithApp(appctx.Options{NeedsDB: true, Migrate: true}, runInit),
	}
}

func runInit(app *appctx.App, cmd *cobra.Command, args []string) error {
	t, err := app.Editor.New(args[0])
	if err != nil {
		return err
	}
	if err := app.Store.Save(cmd.Context(), t); err != nil {
		return fmt.Errorf("failed to save tracker: %w", err)
	}
	app.Logger.Info("created tracker", "tracker_id", t.TrackerID, "name", t.TrackerName)

	if app.Out.Structured() {
		return app.Out.Render(summarize(t), nil, nil)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created tracker %q (%s)\n", t.TrackerName, t.TrackerID)
	return nil
}
