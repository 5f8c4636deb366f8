package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/domain"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type versionInfo struct {
	Binary        string `json:"binary"`
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	BuildDate     string `json:"build_date"`
	SchemaVersion int    `json:"schema_version"`
}

func newVersionCmd(binary string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  fmt.Sprintf(`Displays version, commit, and build date information for %s.`, binary),
		Args:  cobra.NoArgs,
		RunE: appctx.WithApp(appctx.NoDB(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			info := versionInfo{
				Binary:        binary,
				Version:       Version,
				Commit:        GitCommit,
				BuildDate:     BuildDate,
				SchemaVersion: domain.CurrentSchemaVersion,
			}
			if app.Out.Structured() {
				return app.Out.Render(info, nil, nil)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s version %s\n", binary, Version)
			fmt.Fprintf(out, "  commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  built:  %s\n", BuildDate)
			fmt.Fprintf(out, "  tracker schema: v%d\n", domain.CurrentSchemaVersion)
			return nil
		}),
	}
}
