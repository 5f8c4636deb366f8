package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/importer"
	"github.com/lherron/wilds/internal/merge"
	"github.com/lherron/wilds/internal/share"
	"github.com/lherron/wilds/internal/snapshot"
)

type mergeAdmResult struct {
	TrackerID   string        `json:"tracker_id"`
	Out         string        `json:"out,omitempty"`
	SnapshotRev string        `json:"snapshot_rev"`
	Report      *merge.Report `json:"report"`
}

func newMergeAdmCmd() *cobra.Command {
	var (
		out        string
		reportPath string
		showDiff   bool
	)

	cmd := &cobra.Command{
		Use:   "merge <a> <b>",
		Short: "Merge two tracker exports offline",
		Long: `Merge combines two exports of the same tracker (share strings, JSON or
YAML files) without touching the database. Clicks from both copies are kept,
structural edits are replayed from both change logs, and conflicting labels
are resolved by the newer edit. The first file is treated as the local copy.

The merged tracker is written as JSON to --out, or to stdout.
Use --report to write a JSON report of what the merge took from each side.
Use --diff to print a unified diff of the first file against the result.`,
		Args: cobra.ExactArgs(2),
		RunE: appctx.WithApp(appctx.NoDB(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			return runMergeAdm(app, cmd, args[0], args[1], out, reportPath, showDiff)
		}),
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the merged tracker to path")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write JSON report to path")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Print a diff of the first file against the result")

	return cmd
}

func runMergeAdm(app *appctx.App, cmd *cobra.Command, pathA, pathB, out, reportPath string, showDiff bool) error {
	now := app.Editor.Now().UnixMilli()

	a, err := loadTrackerFile(cmd.InOrStdin(), pathA, now)
	if err != nil {
		return err
	}
	b, err := loadTrackerFile(cmd.InOrStdin(), pathB, now)
	if err != nil {
		return err
	}
	if a.TrackerID != b.TrackerID {
		app.Logger.Warn("merging different trackers", "a", a.TrackerID, "b", b.TrackerID)
	}

	merged, report := merge.TrackersWithReport(a, b)
	app.Logger.Info("merged trackers",
		"tracker_id", merged.TrackerID,
		"clicks_added", report.ClicksAdded,
		"changes_added", report.ChangesAdded,
		"conflicts", len(report.Conflicts))

	data, err := snapshot.PrettyJSON(merged)
	if err != nil {
		return err
	}
	rev, err := snapshot.Rev(merged)
	if err != nil {
		return err
	}

	if reportPath != "" {
		reportData, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(reportPath, append(reportData, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	// With the tracker on stdout, everything else goes to stderr
	status := cmd.OutOrStdout()
	if out == "" || out == "-" {
		status = cmd.ErrOrStderr()
	}

	if showDiff {
		diff, err := importer.Diff(a, merged)
		if err != nil {
			return err
		}
		fmt.Fprint(status, diff)
	}

	if err := writeOutput(cmd.OutOrStdout(), out, append(data, '\n')); err != nil {
		return err
	}

	if out == "" || out == "-" {
		fmt.Fprint(status, report.FormatConflicts())
		return nil
	}
	if app.Out.Structured() {
		return app.Out.Render(mergeAdmResult{TrackerID: merged.TrackerID, Out: out, SnapshotRev: rev, Report: report}, nil, nil)
	}
	fmt.Fprintf(status, "Merged %s into %s\n", pathB, out)
	fmt.Fprintf(status, "  +%d clicks, +%d changes, +%d screens, +%d buttons, -%d removed\n",
		report.ClicksAdded, report.ChangesAdded, report.ScreensAdded, report.ButtonsAdded, report.Removed)
	fmt.Fprint(status, report.FormatConflicts())
	fmt.Fprintf(status, "  rev: %s\n", rev)
	return nil
}

// loadTrackerFile reads a tracker in any import format, migrating older
// exports, and validates it
func loadTrackerFile(in io.Reader, path string, now int64) (*domain.Tracker, error) {
	data, err := readInput(in, path)
	if err != nil {
		return nil, err
	}
	t, _, err := share.Parse(data, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if domain.NeedsMigration(t) {
		domain.Migrate(t, now)
	}
	if err := domain.ValidateTracker(t); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
