package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/bulk"
	"github.com/lherron/wilds/internal/bundle"
	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/importer"
)

type bundleApplyResult struct {
	BundleDir string           `json:"bundle_dir"`
	DryRun    bool             `json:"dry_run"`
	Applied   []bundle.Applied `json:"applied"`
	Result    *bulk.Result     `json:"result"`
}

func newBundleAdmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Apply tracker bundles",
	}
	cmd.AddCommand(newBundleApplyCmd())
	return cmd
}

func newBundleApplyCmd() *cobra.Command {
	var (
		from            string
		mode            string
		match           string
		dryRun          bool
		continueOnError bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Import the trackers of a bundle directory",
		Long: `Apply imports every tracker of a bundle written by "wilds bundle create".
Each tracker file is checked against the revision recorded in the manifest
before it is imported.

--mode merge (the default) merges into trackers that already exist, so a
bundle can be applied repeatedly. --mode overwrite replaces them and
--mode create refuses them. Trackers are applied one at a time; the first
failure stops the run unless --continue-on-error is given.`,
		Args: cobra.NoArgs,
		RunE: appctx.WithApp(appctx.Options{NeedsDB: true, Migrate: true}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
			if from == "" {
				from = app.Config.BundleDir
			}
			return runBundleApply(app, cmd, from, bundle.ApplyOptions{
				Mode:            importer.Mode(mode),
				Match:           match,
				DryRun:          dryRun,
				ContinueOnError: continueOnError,
			})
		}),
	}

	cmd.Flags().StringVar(&from, "from", "", "Bundle directory path (default: bundle_dir from config)")
	cmd.Flags().StringVar(&mode, "mode", string(importer.ModeMerge), "Existing trackers: merge, overwrite or create")
	cmd.Flags().StringVar(&match, "match", "", "Only trackers with this id or a name matching this glob")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and diff without writing")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Continue after errors")

	return cmd
}

func runBundleApply(app *appctx.App, cmd *cobra.Command, from string, opts bundle.ApplyOptions) error {
	switch opts.Mode {
	case importer.ModeMerge, importer.ModeOverwrite, importer.ModeCreate:
	default:
		return fmt.Errorf("%w: %q (use merge, overwrite or create)", importer.ErrInvalidMode, opts.Mode)
	}

	if _, err := os.Stat(from); err != nil {
		return fmt.Errorf("bundle directory not found: %w", err)
	}
	b, err := bundle.Load(from)
	if err != nil {
		return fmt.Errorf("failed to load bundle: %w", err)
	}

	if !app.Out.Structured() {
		opts.Progress = cmd.ErrOrStderr()
	}
	im := importer.New(app.Store, app.Events(), app.Logger)
	applied, result := bundle.Apply(cmd.Context(), b, im, opts)
	app.Logger.Info("bundle applied",
		"dir", b.Dir,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"dry_run", opts.DryRun)

	if app.Out.Structured() {
		if applied == nil {
			applied = []bundle.Applied{}
		}
		if err := app.Out.Render(bundleApplyResult{BundleDir: b.Dir, DryRun: opts.DryRun, Applied: applied, Result: result}, nil, nil); err != nil {
			return err
		}
		return result.Err()
	}

	w := cmd.OutOrStdout()
	for _, a := range applied {
		res := a.Result
		if opts.DryRun {
			fmt.Fprintf(w, "Would have %s tracker %q (%s) from %s\n", res.Action, res.TrackerName, res.TrackerID, a.Entry.File)
		} else {
			fmt.Fprintf(w, "%s tracker %q (%s) from %s\n", capitalize(res.Action), res.TrackerName, res.TrackerID, a.Entry.File)
		}
		if r := res.Report; r != nil {
			fmt.Fprintf(w, "  +%d clicks, +%d changes, -%d removed\n", r.ClicksAdded, r.ChangesAdded, r.Removed)
		}
	}
	result.PrintSummary(w)
	return result.Err()
}
