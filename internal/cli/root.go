package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the wilds command tree
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wilds",
		Short: "Habit tracker with mergeable, shareable trackers",
		Long: `wilds keeps habit trackers (screens of click-counter buttons,
questionnaires and their answers) in a local SQLite database.

Trackers travel between devices as share strings or JSON files; importing
with --merge combines both copies without losing clicks or edits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("db", "", "Path to database file (overrides WILDS_DB_PATH)")
	cmd.PersistentFlags().Bool("json", false, "Output as JSON")
	cmd.PersistentFlags().Bool("yaml", false, "Output as YAML")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides WILDS_LOG_LEVEL)")
	cmd.PersistentFlags().StringP("tracker", "t", "", "Tracker used when a command's tracker argument is omitted (overrides WILDS_TRACKER)")

	cmd.AddCommand(
		newInitCmd(),
		newLsCmd(),
		newShowCmd(),
		newRenameCmd(),
		newClickCmd(),
		newUnclickCmd(),
		newScreenCmd(),
		newButtonCmd(),
		newQuestionnaireCmd(),
		newLogCmd(),
		newHistoryCmd(),
		newExportCmd(),
		newImportCmd(),
		newArchiveCmd(true),
		newArchiveCmd(false),
		newRmTrackerCmd(),
		newBundleCmd(),
		newVersionCmd("wilds"),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}
