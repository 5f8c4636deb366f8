package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/store"
)

func newLsCmd() *cobra.Command {
	var opts store.ListOptions

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List trackers",
		Long:    `Lists trackers, most recently modified first. Archived trackers are hidden unless --archived or --all is given.`,
		Args:    cobra.NoArgs,
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			return runLs(app, cmd, opts)
		}),
	}

	cmd.Flags().BoolVar(&opts.Archived, "archived", false, "List archived trackers only")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "List active and archived trackers")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results to return (0 = no limit)")

	return cmd
}

func runLs(app *appctx.App, cmd *cobra.Command, opts store.ListOptions) error {
	list, err := app.Store.List(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if list == nil {
		list = []store.Summary{}
	}

	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{
			s.TrackerID,
			s.Name,
			formatMillis(s.LastModified),
			status(s.Archived),
			strconv.Itoa(s.SchemaVersion),
		})
	}
	return app.Out.Render(list, []string{"ID", "NAME", "MODIFIED", "STATUS", "SCHEMA"}, rows)
}
