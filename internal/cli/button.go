package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/selectors"
)

type buttonResult struct {
	TrackerID string `json:"tracker_id"`
	ScreenID  string `json:"screen_id"`
	ButtonID  string `json:"button_id"`
	Text      string `json:"text"`
	Archived  bool   `json:"archived"`
	Action    string `json:"action"`
}

// buttonEdit applies an edit and returns the button it acted on together
// with the screen holding it afterwards
type buttonEdit func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, domain.Button, error)

func newButtonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "button",
		Short: "Manage the buttons of a tracker",
		Long: `Buttons are click counters on a screen. Buttons are selected by id or
name; qualify a name shared by several screens as "<screen>/<button>".

Examples:
  wilds button add Habits "Main Screen" Stretch
  wilds button rename Habits Stretch Yoga
  wilds button mv Habits Yoga Evening
  wilds button rm Habits "Evening/Yoga"`,
	}

	var index int
	mv := buttonEditCmd("mv <button> <screen>", "Move a button to another screen", 2, "moved", func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, domain.Button, error) {
		_, b, err := selectors.Button(t, args[0])
		if err != nil {
			return nil, domain.Button{}, err
		}
		dst, err := selectors.Screen(t, args[1])
		if err != nil {
			return nil, domain.Button{}, err
		}
		buttonID, dstID := b.ID, dst.ID
		if err := app.Editor.MoveButton(t, buttonID, dstID, index-1); err != nil {
			return nil, domain.Button{}, err
		}
		s, moved := t.FindButton(buttonID)
		return s, *moved, nil
	})
	mv.Flags().IntVar(&index, "index", 0, "1-based position among the active buttons of the screen (default: last)")

	cmd.AddCommand(
		buttonEditCmd("add <screen> <text>", "Add a button to a screen", 2, "added", func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, domain.Button, error) {
			s, err := selectors.Screen(t, args[0])
			if err != nil {
				return nil, domain.Button{}, err
			}
			b, err := app.Editor.AddButton(t, s.ID, args[1])
			if err != nil {
				return nil, domain.Button{}, err
			}
			return s, *b, nil
		}),
		buttonEditCmd("rename <button> <text>", "Rename a button", 2, "renamed", func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, domain.Button, error) {
			s, b, err := selectors.Button(t, args[0])
			if err != nil {
				return nil, domain.Button{}, err
			}
			if err := app.Editor.RenameButton(t, b.ID, args[1]); err != nil {
				return nil, domain.Button{}, err
			}
			return s, *b, nil
		}),
		buttonEditCmd("archive <button>", "Archive a button", 1, "archived", func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, domain.Button, error) {
			s, b, err := selectors.Button(t, args[0])
			if err != nil {
				return nil, domain.Button{}, err
			}
			if err := app.Editor.ArchiveButton(t, b.ID); err != nil {
				return nil, domain.Button{}, err
			}
			return s, *b, nil
		}),
		buttonEditCmd("unarchive <button>", "Restore an archived button", 1, "unarchived", func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, domain.Button, error) {
			s, b, err := selectors.Button(t, args[0])
			if err != nil {
				return nil, domain.Button{}, err
			}
			if err := app.Editor.UnarchiveButton(t, b.ID); err != nil {
				return nil, domain.Button{}, err
			}
			return s, *b, nil
		}),
		buttonEditCmd("rm <button>", "Permanently delete a button and its clicks", 1, "deleted", func(app *appctx.App, t *domain.Tracker, args []string) (*domain.Screen, domain.Button, error) {
			s, b, err := selectors.Button(t, args[0])
			if err != nil {
				return nil, domain.Button{}, err
			}
			removed := *b
			if err := app.Editor.DeleteButton(t, b.ID); err != nil {
				return nil, domain.Button{}, err
			}
			return s, removed, nil
		}),
		mv,
	)

	return cmd
}

// buttonEditCmd builds a button subcommand taking an optional tracker and
// n arguments
func buttonEditCmd(use, short string, n int, action string, fn buttonEdit) *cobra.Command {
	return &cobra.Command{
		Use:   trackerUse(use),
		Short: short,
		Args:  cobra.RangeArgs(n, n+1),
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			selector, rest, err := trackerArgs(app, args, n)
			if err != nil {
				return err
			}

			var res buttonResult
			_, err = editTracker(cmd.Context(), app, selector, func(t *domain.Tracker) error {
				s, b, err := fn(app, t, rest)
				if err != nil {
					return err
				}
				res = buttonResult{TrackerID: t.TrackerID, ScreenID: s.ID, ButtonID: b.ID, Text: b.Text, Archived: b.Archived, Action: action}
				return nil
			})
			if err != nil {
				return err
			}

			if app.Out.Structured() {
				return app.Out.Render(res, nil, nil)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Button %q (%s) %s\n", res.Text, res.ButtonID, action)
			return nil
		}),
	}
}
