package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/events"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit int
		all   bool
		after string
	)

	cmd := &cobra.Command{
		Use:   "history [tracker]",
		Short: "Show the audit history of a tracker",
		Long: `Shows the local audit log: saves, imports, merges, archives and deletes,
newest first. History outlives a deleted tracker; select it by its id.

When more events remain, the cursor of the next page is printed to stderr as
next_cursor=<cursor>; pass it back with --cursor.`,
		Args: cobra.MaximumNArgs(1),
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			trackerID := ""
			if !all {
				selector, _, err := trackerArgs(app, args, 0)
				if err != nil {
					return err
				}
				if trackerID, err = resolveTrackerID(cmd.Context(), app.Store, selector); err != nil {
					return err
				}
			}
			return runHistory(app, cmd, events.ListOptions{TrackerID: trackerID, Limit: limit, Cursor: after})
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Limit number of events (0 = unlimited)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show events of all trackers")
	cmd.Flags().StringVar(&after, "cursor", "", "Pagination cursor from previous page")

	return cmd
}

func runHistory(app *appctx.App, cmd *cobra.Command, opts events.ListOptions) error {
	evs, next, err := events.NewReader(app.DB.DB).Page(opts)
	if err != nil {
		return err
	}
	if next != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "next_cursor=%s\n", next)
	}
	if evs == nil {
		evs = []events.Event{}
	}

	rows := make([][]string, 0, len(evs))
	for _, e := range evs {
		payload := ""
		if e.Payload != nil {
			payload = *e.Payload
		}
		rows = append(rows, []string{fmt.Sprint(e.ID), e.Timestamp, e.TrackerID, e.EventType, payload})
	}
	return app.Out.Render(evs, []string{"ID", "TIME", "TRACKER", "EVENT", "PAYLOAD"}, rows)
}
