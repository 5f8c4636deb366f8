package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/db"
)

type migrationStatus struct {
	Path    string   `json:"path"`
	Applied []string `json:"applied"`
	Pending []string `json:"pending"`
}

func newMigrateAdmCmd() *cobra.Command {
	var (
		dryRun     bool
		showStatus bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run any pending database migrations",
		Long: `Migrate applies any pending SQL migrations to the database.

Migrations are embedded in the binary and tracked via the schema_migrations
table. Each migration file (e.g., 000001_init.sql) is applied exactly once.

This command is safe to run multiple times - it only applies migrations that
haven't been applied yet.

Use --dry-run to see which migrations would be applied without running them.
Use --status to show the current migration status.`,
		Args: cobra.NoArgs,
		RunE: appctx.WithApp(appctx.NoDB(), func(app *appctx.App, cmd *cobra.Command, args []string) error {
			return runMigrateAdm(app, cmd, dryRun, showStatus)
		}),
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show which migrations would be applied without running them")
	cmd.Flags().BoolVar(&showStatus, "status", false, "Show current migration status")

	return cmd
}

func runMigrateAdm(app *appctx.App, cmd *cobra.Command, dryRun, showStatus bool) error {
	if app.Config.DBPath == "" {
		return fmt.Errorf("database path not specified (use --db flag or set WILDS_DB_PATH)")
	}

	database, err := db.Open(app.Config.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	out := cmd.OutOrStdout()

	if showStatus || dryRun {
		applied, pending, err := database.MigrationStatus()
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		if app.Out.Structured() {
			return app.Out.Render(migrationStatus{Path: database.Path(), Applied: orEmpty(applied), Pending: orEmpty(pending)}, nil, nil)
		}
		if dryRun {
			printPending(out, pending)
			return nil
		}
		printStatus(out, applied, pending)
		return nil
	}

	applied, err := database.MigrateWithInfo()
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.Logger.Info("migrated database", "path", database.Path(), "applied", len(applied))

	if app.Out.Structured() {
		return app.Out.Render(migrationStatus{Path: database.Path(), Applied: orEmpty(applied), Pending: []string{}}, nil, nil)
	}
	if len(applied) == 0 {
		fmt.Fprintln(out, "Database is up to date. No migrations to apply.")
		return nil
	}
	for _, m := range applied {
		fmt.Fprintf(out, "✓ Applied migration: %s\n", m)
	}
	fmt.Fprintf(out, "\nApplied %d migration(s).\n", len(applied))
	return nil
}

func printStatus(out io.Writer, applied, pending []string) {
	if len(applied) == 0 && len(pending) == 0 {
		fmt.Fprintln(out, "No migrations found.")
		return
	}

	if len(applied) > 0 {
		fmt.Fprintln(out, "Applied migrations:")
		for _, m := range applied {
			fmt.Fprintf(out, "  ✓ %s\n", m)
		}
	}

	if len(pending) > 0 {
		if len(applied) > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, "Pending migrations:")
		for _, m := range pending {
			fmt.Fprintf(out, "  ○ %s\n", m)
		}
	}
}

func printPending(out io.Writer, pending []string) {
	if len(pending) == 0 {
		fmt.Fprintln(out, "No pending migrations. Database is up to date.")
		return
	}

	fmt.Fprintln(out, "Pending migrations (would be applied):")
	for _, m := range pending {
		fmt.Fprintf(out, "  ○ %s\n", m)
	}
	fmt.Fprintf(out, "\nTotal: %d migration(s) would be applied.\n", len(pending))
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
