package cli

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/merge"
)

func newLogCmd() *cobra.Command {
	var (
		limit  int
		entity string
	)

	cmd := &cobra.Command{
		Use:   "log [tracker]",
		Short: "Show the change log of a tracker",
		Long: `Shows the structural edits recorded in a tracker (renames, archives, moves,
deletes and questionnaire edits), newest first. These records travel with
the tracker and drive merges.

Examples:
  wilds log Habits
  wilds log Habits --entity b-1700000000000-ab12
  wilds log Habits --limit 5 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			return runLog(app, cmd, args, entity, limit)
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Limit number of records (0 = unlimited)")
	cmd.Flags().StringVar(&entity, "entity", "", "Only show records for this entity id")

	return cmd
}

func runLog(app *appctx.App, cmd *cobra.Command, args []string, entity string, limit int) error {
	selector, _, err := trackerArgs(app, args, 0)
	if err != nil {
		return err
	}
	t, err := loadTracker(cmd.Context(), app, selector)
	if err != nil {
		return err
	}

	changes := make([]domain.EntityChange, 0, len(t.ChangeLog))
	for _, c := range t.ChangeLog {
		if entity == "" || c.EntityID == entity {
			changes = append(changes, c)
		}
	}
	slices.SortStableFunc(changes, func(x, y domain.EntityChange) int { return merge.CompareChanges(y, x) })
	if limit > 0 && len(changes) > limit {
		changes = changes[:limit]
	}

	rows := make([][]string, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, []string{
			formatMillis(c.Timestamp),
			string(c.EntityType),
			c.EntityID,
			string(c.ChangeType),
			changeDetail(c),
		})
	}
	return app.Out.Render(changes, []string{"TIME", "ENTITY", "ID", "CHANGE", "DETAIL"}, rows)
}

// changeDetail describes the values a change carries
func changeDetail(c domain.EntityChange) string {
	if c.PreviousValue != nil && c.NewResponseValue != nil {
		return fmt.Sprintf("question %s: %d -> %d", c.QuestionID, *c.PreviousValue, *c.NewResponseValue)
	}
	switch c.ChangeType {
	case domain.ChangeRename, domain.ChangeMove, domain.ChangeEdit, domain.ChangeUpdate:
		if c.OldValue == "" && c.NewValue == "" {
			break
		}
		return fmt.Sprintf("%s -> %s", quoteValue(c.OldValue), quoteValue(c.NewValue))
	}
	if c.NewValue != "" {
		return quoteValue(c.NewValue)
	}
	return ""
}

func quoteValue(v string) string {
	if _, err := strconv.Atoi(v); err == nil {
		return v
	}
	return strconv.Quote(v)
}
