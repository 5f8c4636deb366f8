package appctx

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lherron/wilds/internal/db"
	"github.com/lherron/wilds/internal/render"
)

// newCmd returns a command carrying the global flags of the wilds root
func newCmd(args ...string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("db", "", "Database path")
	cmd.Flags().String("log-level", "", "Log level")
	cmd.Flags().String("tracker", "", "Default tracker")
	cmd.Flags().Bool("json", false, "JSON output")
	cmd.Flags().Bool("yaml", false, "YAML output")
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	_ = cmd.ParseFlags(args)
	return cmd
}

// isolate keeps config loading away from the developer's home and env files
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	t.Setenv("WILDS_DB_PATH", filepath.Join(dir, "wilds.db"))
	t.Setenv("WILDS_LOG_LEVEL", "")
	t.Setenv("WILDS_OUTPUT", "")
	t.Setenv("WILDS_TRACKER", "")
	return dir
}

func TestBootstrap_ConfigOnly(t *testing.T) {
	isolate(t)

	app, err := Bootstrap(newCmd(), NoDB())
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Config)
	assert.NotNil(t, app.Logger)
	assert.NotNil(t, app.Editor)
	assert.Nil(t, app.DB)
	assert.Nil(t, app.Store)
	assert.Nil(t, app.Events())
	assert.Equal(t, render.FormatTable, app.Out.Format())
}

func TestBootstrap_InitialisesFreshDB(t *testing.T) {
	dir := isolate(t)

	app, err := Bootstrap(newCmd(), DefaultOptions())
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Store)
	assert.Equal(t, filepath.Join(dir, "wilds.db"), app.DB.Path())
	_, pending, err := app.DB.MigrationStatus()
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.NotNil(t, app.Events())
}

func TestBootstrap_RequiresMigration(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "wilds.db")

	database, err := db.Open(path)
	require.NoError(t, err)
	require.NoError(t, database.Migrate())
	_, err = database.Exec(`DELETE FROM schema_migrations WHERE version = '000002_event_log.sql'`)
	require.NoError(t, err)
	database.Close()

	_, err = Bootstrap(newCmd(), DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wildsadm migrate")
}

func TestBootstrap_FlagOverrides(t *testing.T) {
	dir := isolate(t)
	override := filepath.Join(dir, "override.db")

	app, err := Bootstrap(newCmd("--db", override, "--json", "--log-level", "debug", "--tracker", "Habits"), NoDB())
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, override, app.Config.DBPath)
	assert.Equal(t, "debug", app.Config.LogLevel)
	assert.Equal(t, "Habits", app.Config.DefaultTracker)
	assert.Equal(t, render.FormatJSON, app.Out.Format())
}

func TestBootstrap_RejectsBadOutput(t *testing.T) {
	isolate(t)
	t.Setenv("WILDS_OUTPUT", "xml")

	_, err := Bootstrap(newCmd(), NoDB())
	assert.Error(t, err)

	// --yaml wins over the configured value
	app, err := Bootstrap(newCmd("--yaml"), NoDB())
	require.NoError(t, err)
	assert.Equal(t, render.FormatYAML, app.Out.Format())
}
