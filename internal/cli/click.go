package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/selectors"
)

type clickResult struct {
	TrackerID string               `json:"tracker_id"`
	ButtonID  string               `json:"button_id"`
	Button    string               `json:"button"`
	Count     int                  `json:"count"`
	Clicks    []domain.ClickRecord `json:"clicks"`
}

func newClickCmd() *cobra.Command {
	var times int

	cmd := &cobra.Command{
		Use:   "click [tracker] <button>",
		Short: "Count a button click",
		Long: `Records a click on a button. Buttons are selected by id or name; qualify a
name shared by several screens as "<screen>/<button>".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			return runClick(app, cmd, args, times, false)
		}),
	}
	cmd.Flags().IntVarP(&times, "times", "n", 1, "Number of clicks to record")

	return cmd
}

func newUnclickCmd() *cobra.Command {
	var times int

	cmd := &cobra.Command{
		Use:   "unclick [tracker] <button>",
		Short: "Take back a button click",
		Long:  `Records a decrement on a button. A count never goes below zero.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			return runClick(app, cmd, args, times, true)
		}),
	}
	cmd.Flags().IntVarP(&times, "times", "n", 1, "Number of decrements to record")

	return cmd
}

func runClick(app *appctx.App, cmd *cobra.Command, args []string, times int, decrement bool) error {
	if times < 1 {
		return fmt.Errorf("--times must be at least 1")
	}
	selector, rest, err := trackerArgs(app, args, 1)
	if err != nil {
		return err
	}

	res := clickResult{}
	_, err = editTracker(cmd.Context(), app, selector, func(t *domain.Tracker) error {
		_, b, err := selectors.Button(t, rest[0])
		if err != nil {
			return err
		}
		for range times {
			click := app.Editor.AddClick
			if decrement {
				click = app.Editor.DecrementClick
			}
			c, err := click(t, b.ID)
			if err != nil {
				return err
			}
			res.Clicks = append(res.Clicks, c)
		}
		res.TrackerID, res.ButtonID, res.Button, res.Count = t.TrackerID, b.ID, b.Text, b.Count
		return nil
	})
	if err != nil {
		return err
	}

	if app.Out.Structured() {
		return app.Out.Render(res, nil, nil)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", res.Button, res.Count)
	return nil
}
