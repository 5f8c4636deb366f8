package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/bundle"
	"github.com/lherron/wilds/internal/bulk"
	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/events"
	"github.com/lherron/wilds/internal/store"
)

type bundleCreateResult struct {
	BundleDir string           `json:"bundle_dir"`
	Trackers  int              `json:"trackers_count"`
	Manifest  *bundle.Manifest `json:"manifest"`
	Result    *bulk.Result     `json:"result"`
}

func newBundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Back up trackers to a bundle directory",
		Long: `Bundles are directory backups of trackers: a manifest, one JSON file per
tracker and optionally the audit history. Apply a bundle with
"wildsadm bundle apply".`,
	}
	cmd.AddCommand(newBundleCreateCmd())
	return cmd
}

func newBundleCreateCmd() *cobra.Command {
	var (
		out      string
		match    string
		archived bool
		noEvents bool
		jobs     int
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write trackers to a bundle directory",
		Long: `Create writes the active trackers (and archived ones with --archived) to a
bundle directory. --match selects trackers by exact id or by a name glob
such as "*work*".

Examples:
  wilds bundle create --out backups/2025-03-01
  wilds bundle create --out work --match "*work*" --archived`,
		Args: cobra.NoArgs,
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			if out == "" {
				out = app.Config.BundleDir
			}
			opts := bundle.CreateOptions{
				OutputDir:    out,
				Match:        match,
				WithArchived: archived,
				WithEvents:   !noEvents,
				Jobs:         jobs,
				Version:      Version,
				Commit:       GitCommit,
				BuildDate:    BuildDate,
				Now:          app.Editor.Now,
			}
			if dryRun {
				return runBundleDryRun(app, cmd, opts)
			}
			return runBundleCreate(app, cmd, opts)
		}),
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output directory for bundle (default: bundle_dir from config)")
	cmd.Flags().StringVar(&match, "match", "", "Only trackers with this id or a name matching this glob")
	cmd.Flags().BoolVar(&archived, "archived", false, "Include archived trackers")
	cmd.Flags().BoolVar(&noEvents, "no-events", false, "Skip events.ndjson")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Parallel writers (0 = one per CPU)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the trackers that would be written")

	return cmd
}

func runBundleCreate(app *appctx.App, cmd *cobra.Command, opts bundle.CreateOptions) error {
	if !app.Out.Structured() {
		opts.Progress = cmd.ErrOrStderr()
	}

	b, result, err := bundle.Create(cmd.Context(), app.Store, events.NewReader(app.DB.DB), opts)
	if err != nil {
		if result != nil && !app.Out.Structured() {
			result.PrintSummary(cmd.ErrOrStderr())
		}
		return fmt.Errorf("failed to create bundle: %w", err)
	}
	app.Logger.Info("bundle created", "dir", b.Dir, "trackers", len(b.Manifest.Trackers))

	if app.Out.Structured() {
		return app.Out.Render(bundleCreateResult{
			BundleDir: b.Dir,
			Trackers:  len(b.Manifest.Trackers),
			Manifest:  b.Manifest,
			Result:    result,
		}, nil, nil)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Bundle created successfully\n")
	fmt.Fprintf(w, "  Location: %s\n", b.Dir)
	fmt.Fprintf(w, "  Trackers: %d\n", len(b.Manifest.Trackers))
	fmt.Fprintf(w, "  With events: %v\n", b.Manifest.WithEvents)
	return nil
}

func runBundleDryRun(app *appctx.App, cmd *cobra.Command, opts bundle.CreateOptions) error {
	list, err := app.Store.List(cmd.Context(), store.ListOptions{All: opts.WithArchived})
	if err != nil {
		return err
	}

	var rows [][]string
	selected := list[:0]
	for _, s := range list {
		if !bundle.Matches(opts.Match, s.TrackerID, s.Name) {
			continue
		}
		selected = append(selected, s)
		rows = append(rows, []string{s.TrackerID, s.Name, status(s.Archived)})
	}

	if app.Out.Structured() {
		return app.Out.Render(selected, nil, nil)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dry run - would write %d tracker(s) to %s\n", len(selected), opts.OutputDir)
	if len(rows) == 0 {
		return nil
	}
	return app.Out.Render(selected, []string{"ID", "NAME", "STATUS"}, rows)
}
