package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/selectors"
)

type screenResult struct {
	TrackerID string `json:"tracker_id"`
	ScreenID  string `json:"screen_id"`
	Name      string `json:"name"`
	Archived  bool   `json:"archived"`
	Action    string `json:"action"`
}

func newScreenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Manage the screens of a tracker",
		Long: `Screens group buttons. Screens are selected by id or name.

Examples:
  wilds screen add Habits Evening
  wilds screen rename Habits Evening Night
  wilds screen archive Habits Night
  wilds screen mv Habits Night 1`,
	}

	cmd.AddCommand(
		screenEditCmd("add <name>", "Add a screen", 1, "added", func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, error) {
			return app.Editor.AddScreen(t, args[0])
		}),
		screenEditCmd("rename <screen> <name>", "Rename a screen", 2, "renamed", func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, error) {
			s, err := selectors.Screen(t, args[0])
			if err != nil {
				return nil, err
			}
			return s, app.Editor.RenameScreen(t, s.ID, args[1])
		}),
		screenEditCmd("archive <screen>", "Archive a screen (the last active screen cannot be archived)", 1, "archived", func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, error) {
			s, err := selectors.Screen(t, args[0])
			if err != nil {
				return nil, err
			}
			return s, app.Editor.RemoveScreen(t, s.ID)
		}),
		screenEditCmd("unarchive <screen>", "Restore an archived screen", 1, "unarchived", func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, error) {
			s, err := selectors.Screen(t, args[0])
			if err != nil {
				return nil, err
			}
			return s, app.Editor.UnarchiveScreen(t, s.ID)
		}),
		screenEditCmd("rm <screen>", "Permanently delete a screen and its buttons", 1, "deleted", func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, error) {
			s, err := selectors.Screen(t, args[0])
			if err != nil {
				return nil, err
			}
			removed := *s
			return &removed, app.Editor.DeleteScreen(t, s.ID)
		}),
		screenEditCmd("mv <screen> <position>", "Move an active screen to a 1-based position", 2, "moved", func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, error) {
			s, err := selectors.Screen(t, args[0])
			if err != nil {
				return nil, err
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, fmt.Errorf("invalid position %q", args[1])
			}
			from := -1
			for i, active := range t.ActiveScreens() {
				if active.ID == s.ID {
					from = i
				}
			}
			if from < 0 {
				return nil, fmt.Errorf("screen %q is archived", s.Name)
			}
			moved := *s
			return &moved, app.Editor.ReorderScreens(t, from, to-1)
		}),
	)

	return cmd
}

// screenEditCmd builds a screen subcommand taking an optional tracker and n
// arguments. fn returns the screen it acted on.
func screenEditCmd(use, short string, n int, action string, fn func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, error)) *cobra.Command {
	return &cobra.Command{
		Use:   trackerUse(use),
		Short: short,
		Args:  cobra.RangeArgs(n, n+1),
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			selector, rest, err := trackerArgs(app, args, n)
			if err != nil {
				return err
			}

			var res screenResult
			_, err = editTracker(cmd.Context(), app, selector, func(t *domain.Tracker) error {
				s, err := fn(app, t, rest)
				if err != nil {
					return err
				}
				res = screenResult{TrackerID: t.TrackerID, ScreenID: s.ID, Name: s.Name, Archived: s.Archived, Action: action}
				return nil
			})
			if err != nil {
				return err
			}

			if app.Out.Structured() {
				return app.Out.Render(res, nil, nil)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Screen %q (%s) %s\n", res.Name, res.ScreenID, action)
			return nil
		}),
	}
}

// trackerUse inserts the optional tracker argument after the subcommand name
func trackerUse(use string) string {
	for i, r := range use {
		if r == ' ' {
			return use[:i] + " [tracker]" + use[i:]
		}
	}
	return use + " [tracker]"
}
