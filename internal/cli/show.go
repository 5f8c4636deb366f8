package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/tracker"
)

func newShowCmd() *cobra.Command {
	var showArchived bool

	cmd := &cobra.Command{
		Use:   "show [tracker]",
		Short: "Show a tracker's screens and button counts",
		Long: `Shows the screens and buttons of a tracker with their counts. The current
screen is marked with '*'. With --json or --yaml the whole tracker is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			return runShow(app, cmd, args, showArchived)
		}),
	}

	cmd.Flags().BoolVarP(&showArchived, "archived", "a", false, "Include archived screens and buttons")

	return cmd
}

func runShow(app *appctx.App, cmd *cobra.Command, args []string, showArchived bool) error {
	selector, _, err := trackerArgs(app, args, 0)
	if err != nil {
		return err
	}
	t, err := loadTracker(cmd.Context(), app, selector)
	if err != nil {
		return err
	}

	if app.Out.Structured() {
		return app.Out.Render(t, nil, nil)
	}

	var rows [][]string
	for _, s := range t.Screens {
		if s.Archived && !showArchived {
			continue
		}
		screen := s.Name
		if s.ID == t.CurrentScreenID {
			screen = "* " + screen
		}
		for _, b := range s.Buttons {
			if b.Archived && !showArchived {
				continue
			}
			rows = append(rows, []string{
				screen,
				b.Text,
				strconv.Itoa(domain.DeriveCount(b.Clicks)),
				b.ID,
				status(s.Archived || b.Archived),
			})
		}
		if len(s.Buttons) == 0 {
			rows = append(rows, []string{screen, "", "", "", status(s.Archived)})
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n\n", t.TrackerName, t.TrackerID)
	if err := app.Out.Render(nil, []string{"SCREEN", "BUTTON", "COUNT", "ID", "STATUS"}, rows); err != nil {
		return err
	}

	if pending := tracker.PendingNotifications(t, app.Editor.Now()); len(pending) > 0 {
		fmt.Fprintf(out, "\n%d questionnaire reminder(s) due:\n", len(pending))
		for _, n := range pending {
			fmt.Fprintf(out, "  %s (since %s)\n", n.QuestionnaireName, formatMillis(n.ScheduledFor))
		}
	}
	return nil
}
