package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/selectors"
)

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename [tracker] <name>",
		Short: "Rename a tracker",
		Args:  cobra.RangeArgs(1, 2),
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			selector, rest, err := trackerArgs(app, args, 1)
			if err != nil {
				return err
			}
			t, err := editTracker(cmd.Context(), app, selector, func(t *domain.Tracker) error {
				return app.Editor.Rename(t, rest[0])
			})
			if err != nil {
				return err
			}
			if app.Out.Structured() {
				return app.Out.Render(summarize(t), nil, nil)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed tracker %s to %q\n", t.TrackerID, t.TrackerName)
			return nil
		}),
	}
}

func newArchiveCmd(archive bool) *cobra.Command {
	use, short, verb := "archive", "Archive a tracker", "Archived"
	if !archive {
		use, short, verb = "unarchive", "Restore an archived tracker", "Unarchived"
	}

	return &cobra.Command{
		Use:   use + " [tracker]",
		Short: short,
		Long:  `Archived trackers keep their data but are hidden from 'wilds ls' unless --archived or --all is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			selector, _, err := trackerArgs(app, args, 0)
			if err != nil {
				return err
			}
			summary, err := selectors.ResolveTracker(cmd.Context(), app.Store, selector)
			if err != nil {
				return err
			}
			if err := app.Store.SetArchived(cmd.Context(), summary.TrackerID, archive); err != nil {
				return err
			}
			summary.Archived = archive

			if app.Out.Structured() {
				return app.Out.Render(summary, nil, nil)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s tracker %q (%s)\n", verb, summary.Name, summary.TrackerID)
			return nil
		}),
	}
}

func newRmTrackerCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm-tracker <tracker>",
		Short: "Permanently delete a tracker",
		Long: `Permanently deletes a tracker and all of its clicks and answers. Its
audit history is kept. Export the tracker first if you may want it back.

WARNING: this CANNOT be undone. Pass --yes to confirm.`,
		Args: cobra.ExactArgs(1),
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			summary, err := selectors.ResolveTracker(cmd.Context(), app.Store, args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete tracker %q (%s) without --yes", summary.Name, summary.TrackerID)
			}
			if err := app.Store.Delete(cmd.Context(), summary.TrackerID); err != nil {
				return err
			}
			app.Logger.Info("deleted tracker", "tracker_id", summary.TrackerID)

			if app.Out.Structured() {
				return app.Out.Render(summary, nil, nil)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted tracker %q (%s)\n", summary.Name, summary.TrackerID)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm permanent deletion")

	return cmd
}
