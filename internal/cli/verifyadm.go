package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/snapshot"
)

func newVerifyAdmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Validate a tracker JSON file and print its snapshot revision",
		Long: `Verify checks that a tracker JSON file is valid and reports its snapshot
revision and whether the file already is in canonical form. Two files with
the same revision hold the same tracker state.`,
		Args: cobra.ExactArgs(1),
		RunE: appctx.WithApp(appctx.NoDB(), runVerifyAdm),
	}
}

func runVerifyAdm(app *appctx.App, cmd *cobra.Command, args []string) error {
	t, raw, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}
	res, err := snapshot.Verify(t, raw)
	if err != nil {
		return err
	}
	res.InputPath = args[0]

	if app.Out.Structured() {
		if err := app.Out.Render(res, nil, nil); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s\n", res.InputPath, res.Message)
		fmt.Fprintf(out, "  tracker: %s\n", res.TrackerID)
		fmt.Fprintf(out, "  rev:     %s\n", res.SnapshotRev)
	}

	if !res.Valid {
		return fmt.Errorf("%s is not a valid tracker", res.InputPath)
	}
	return nil
}
