package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/render"
	"github.com/lherron/wilds/internal/share"
	"github.com/lherron/wilds/internal/snapshot"
)

// Export formats
const (
	exportShare     = "share"
	exportLegacy    = "legacy"
	exportJSON      = "json"
	exportYAML      = "yaml"
	exportCanonical = "canonical"
)

func newExportCmd() *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export [tracker]",
		Short: "Export a tracker as a share string or file",
		Long: `Exports a tracker for another device.

Formats:
  share      compact share string (default)
  legacy     share string readable by older app versions
  json       indented JSON in the app's export layout
  yaml       YAML
  canonical  canonical JSON: sorted, compact, stable across devices

Examples:
  wilds export Habits
  wilds export Habits --format json --out habits.json
  wilds export Habits --format canonical | sha256sum`,
		Args: cobra.MaximumNArgs(1),
		RunE: appctx.WithApp(appctx.DefaultOptions(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			return runExport(app, cmd, args, format, out)
		}),
	}

	cmd.Flags().StringVarP(&format, "format", "f", exportShare, "Export format: share, legacy, json, yaml, canonical")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file instead of stdout")

	return cmd
}

func runExport(app *appctx.App, cmd *cobra.Command, args []string, format, out string) error {
	selector, _, err := trackerArgs(app, args, 0)
	if err != nil {
		return err
	}
	t, err := loadTracker(cmd.Context(), app, selector)
	if err != nil {
		return err
	}

	// JSON files report what was written
	if out != "" && out != "-" && (format == exportJSON || format == exportCanonical) {
		res, err := snapshot.Export(t, snapshot.ExportOptions{OutputPath: out, Canonical: format == exportCanonical})
		if err != nil {
			return err
		}
		app.Logger.Info("exported tracker", "tracker_id", t.TrackerID, "out", res.OutputPath, "snapshot_rev", res.SnapshotRev)
		if app.Out.Structured() {
			return app.Out.Render(res, nil, nil)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s (%d screens, %d buttons, %d clicks)\n  rev: %s\n",
			res.TrackerID, res.OutputPath, res.Screens, res.Buttons, res.Clicks, res.SnapshotRev)
		return nil
	}

	data, err := encodeExport(t, format)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), out, data)
}

// encodeExport encodes t in an export format, newline terminated
func encodeExport(t *domain.Tracker, format string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case exportShare:
		var s string
		s, err = share.Encode(t)
		data = []byte(s)
	case exportLegacy:
		var s string
		s, err = share.EncodeLegacy(t)
		data = []byte(s)
	case exportJSON:
		data, err = snapshot.PrettyJSON(t)
	case exportCanonical:
		data, err = snapshot.CanonicalJSON(t)
	case exportYAML:
		var buf bytes.Buffer
		err = render.NewRenderer(&buf, render.Options{Format: render.FormatYAML}).RenderYAML(t)
		return buf.Bytes(), err
	default:
		return nil, fmt.Errorf("unknown export format %q (use share, legacy, json, yaml or canonical)", format)
	}
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
