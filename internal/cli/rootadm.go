package cli

import (
	"github.com/spf13/cobra"
)

// NewAdminCommand creates the wildsadm command tree
func NewAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wildsadm",
		Short: "Administrative CLI for wilds databases and tracker files",
		Long: `wildsadm is the administrative companion to wilds. It handles database
migrations and works on tracker files directly: merging two exports
offline, verifying snapshots and applying tracker bundles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("db", "", "Path to database file (overrides WILDS_DB_PATH)")
	cmd.PersistentFlags().Bool("json", false, "Output as JSON")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides WILDS_LOG_LEVEL)")

	cmd.AddCommand(
		newMigrateAdmCmd(),
		newMergeAdmCmd(),
		newVerifyAdmCmd(),
		newBundleAdmCmd(),
		newVersionCmd("wildsadm"),
	)

	return cmd
}

// ExecuteAdmin runs the admin root command
func ExecuteAdmin() error {
	return NewAdminCommand().Execute()
}
