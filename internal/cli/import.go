package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/importer"
	"github.com/lherron/wilds/internal/share"
)

func newImportCmd() *cobra.Command {
	var (
		mergeMode bool
		overwrite bool
		dryRun    bool
		format    string
	)

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import a tracker from a share string or file",
		Long: `Imports a tracker from a share string, legacy share string, JSON or YAML
file. Use "-" to read from stdin. The format is detected unless --format is given.

When a tracker with the same id already exists, the import fails unless
--merge (combine both copies) or --overwrite (replace the local copy) is
given. --dry-run shows a diff of the result without saving it.

Examples:
  pbpaste | wilds import -
  wilds import habits.json --merge --dry-run
  wilds import habits.json --overwrite`,
		Args: cobra.ExactArgs(1),
		RunE: appctx.WithApp(appctx.Options{NeedsDB: true, Migrate: true}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
			if mergeMode && overwrite {
				return fmt.Errorf("--merge and --overwrite are mutually exclusive")
			}
			opts := importer.Options{Mode: importer.ModeCreate, Format: share.Format(format), DryRun: dryRun}
			if mergeMode {
				opts.Mode = importer.ModeMerge
			}
			if overwrite {
				opts.Mode = importer.ModeOverwrite
			}
			return runImport(app, cmd, args[0], opts)
		}),
	}

	cmd.Flags().BoolVarP(&mergeMode, "merge", "m", false, "Merge into the existing tracker")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace the existing tracker")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the resulting diff without saving")
	cmd.Flags().StringVar(&format, "format", "", "Input format: share, legacy, json, yaml (default: detect)")

	return cmd
}

func runImport(app *appctx.App, cmd *cobra.Command, path string, opts importer.Options) error {
	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	im := importer.New(app.Store, app.Events(), app.Logger)
	res, err := im.Import(cmd.Context(), data, opts)
	if err != nil {
		return err
	}

	if app.Out.Structured() {
		return app.Out.Render(res, nil, nil)
	}

	out := cmd.OutOrStdout()
	if res.DryRun {
		if res.Diff == "" {
			fmt.Fprintln(out, "No changes.")
		} else {
			fmt.Fprint(out, res.Diff)
		}
		fmt.Fprintf(out, "Would have %s tracker %q (%s) from %s input (dry run)\n", res.Action, res.TrackerName, res.TrackerID, res.Format)
		return nil
	}

	fmt.Fprintf(out, "%s tracker %q (%s) from %s input\n", capitalize(res.Action), res.TrackerName, res.TrackerID, res.Format)
	if r := res.Report; r != nil {
		fmt.Fprintf(out, "  +%d clicks, +%d changes, +%d screens, +%d buttons, -%d removed\n",
			r.ClicksAdded, r.ChangesAdded, r.ScreensAdded, r.ButtonsAdded, r.Removed)
		if r.HasConflicts() {
			fmt.Fprint(out, r.FormatConflicts())
		}
	}
	fmt.Fprintf(out, "  rev: %s\n", res.SnapshotRev)
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
