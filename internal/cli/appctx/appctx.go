// Package appctx provides a shared bootstrap helper for CLI commands.
// It centralizes config loading, logging, output selection and database
// opening to reduce boilerplate across commands.
package appctx

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lherron/wilds/internal/config"
	"github.com/lherron/wilds/internal/db"
	"github.com/lherron/wilds/internal/events"
	"github.com/lherron/wilds/internal/logging"
	"github.com/lherron/wilds/internal/render"
	"github.com/lherron/wilds/internal/store"
	"github.com/lherron/wilds/internal/tracker"
)

// App holds the shared application context for commands.
type App struct {
	// Config is the loaded configuration
	Config *config.Config

	// Logger writes structured diagnostics to stderr
	Logger *slog.Logger

	// Out renders command output in the selected format
	Out *render.Renderer

	// DB is the opened database connection (nil if NeedsDB is false)
	DB *db.DB

	// Store persists trackers (nil if NeedsDB is false)
	Store *store.Store

	// Editor applies tracker edits
	Editor *tracker.Editor
}

// Close releases resources held by the App.
// Safe to call multiple times.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		a.DB = nil
	}
}

// Events returns a writer for the audit log, nil without a database
func (a *App) Events() *events.Writer {
	if a.DB == nil {
		return nil
	}
	return events.NewWriter(a.DB.DB)
}

// Options configures the bootstrap behavior.
type Options struct {
	// NeedsDB indicates whether to open the database.
	NeedsDB bool

	// Migrate applies pending migrations instead of failing. A database
	// with no migrations at all is always initialised.
	Migrate bool
}

// DefaultOptions returns default options (DB required).
func DefaultOptions() Options {
	return Options{NeedsDB: true}
}

// NoDB returns options for commands that only need config and output.
func NoDB() Options {
	return Options{}
}

// RunFunc is the signature for command run functions.
type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// WithApp wraps a command's run function with shared bootstrap logic.
// The database is closed automatically when the wrapped function returns.
func WithApp(opts Options, fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := Bootstrap(cmd, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(app, cmd, args)
	}
}

// Bootstrap initializes the App according to the given options.
// Callers are responsible for calling App.Close() when done.
func Bootstrap(cmd *cobra.Command, opts Options) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)

	logger, err := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	format, err := render.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		Out:    render.NewRenderer(cmd.OutOrStdout(), render.Options{Format: format}),
		Editor: tracker.NewEditor(),
	}
	app.Editor.NotifyTime = cfg.NotifyTime

	if opts.NeedsDB {
		database, err := openDB(cfg.DBPath, opts.Migrate, logger)
		if err != nil {
			return nil, err
		}
		app.DB = database
		app.Store = store.New(database, logger)
	}

	return app, nil
}

// applyFlags lets global flags override the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if f := cmd.Flag("db"); f != nil && f.Value.String() != "" {
		cfg.DBPath = f.Value.String()
	}
	if f := cmd.Flag("log-level"); f != nil && f.Value.String() != "" {
		cfg.LogLevel = f.Value.String()
	}
	if f := cmd.Flag("tracker"); f != nil && f.Value.String() != "" {
		cfg.DefaultTracker = f.Value.String()
	}
	if f := cmd.Flag("yaml"); f != nil && f.Value.String() == "true" {
		cfg.Output = string(render.FormatYAML)
	}
	if f := cmd.Flag("json"); f != nil && f.Value.String() == "true" {
		cfg.Output = string(render.FormatJSON)
	}
}

func openDB(path string, migrate bool, logger *slog.Logger) (*db.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	applied, pending, err := database.MigrationStatus()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}
	if len(pending) == 0 {
		return database, nil
	}

	if !migrate && len(applied) > 0 {
		err := database.RequiresMigrationError()
		database.Close()
		return nil, err
	}

	done, err := database.MigrateWithInfo()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialise database: %w", err)
	}
	logger.Info("database migrated", "path", path, "applied", len(done))
	return database, nil
}
