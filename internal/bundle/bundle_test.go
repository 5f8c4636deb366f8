package bundle

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lherron/wilds/internal/events"
	"github.com/lherron/wilds/internal/importer"
	"github.com/lherron/wilds/internal/store"
	"github.com/lherron/wilds/internal/testutil"
)

type fixture struct {
	store  *store.Store
	events *events.Reader
}

func setup(t *testing.T) fixture {
	t.Helper()
	database, _ := testutil.TempDB(t)
	return fixture{store: store.New(database, nil), events: events.NewReader(database.DB)}
}

func (f fixture) save(t *testing.T, id, name string) {
	t.Helper()
	tr := testutil.Tracker(id)
	tr.TrackerName = name
	require.NoError(t, f.store.Save(context.Background(), tr))
}

func fixedNow() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.save(t, "4f1c9a7e-0000-4000-8000-000000000001", "Habits")
	f.save(t, "9b2d0000-0000-4000-8000-000000000002", "Café Work")
	f.save(t, "t-3", "Old")
	require.NoError(t, f.store.SetArchived(ctx, "t-3", true))

	dir := filepath.Join(t.TempDir(), "backup")
	b, result, err := Create(ctx, f.store, f.events, CreateOptions{
		OutputDir:  dir,
		WithEvents: true,
		Jobs:       2,
		Version:    "1.2.3",
		Now:        fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)

	m := b.Manifest
	assert.Equal(t, MachineInterfaceVersion, m.MachineInterfaceVersion)
	assert.Equal(t, "1.2.3", m.Version)
	assert.Equal(t, "2025-03-01T12:00:00Z", m.Timestamp)
	assert.True(t, m.WithEvents)
	require.Len(t, m.Trackers, 2)

	files := map[string]string{}
	for _, e := range m.Trackers {
		files[e.Name] = e.File
		assert.Regexp(t, `^sha256:`, e.SnapshotRev)
		assert.FileExists(t, filepath.Join(dir, e.File))
	}
	assert.Equal(t, "trackers/habits-4f1c9a7e.json", files["Habits"])
	assert.Equal(t, "trackers/cafe-work-9b2d0000.json", files["Café Work"])

	ndjson := testutil.ReadFile(t, filepath.Join(dir, eventsFile))
	lines := strings.Split(strings.TrimSpace(ndjson), "\n")
	assert.Len(t, lines, 2)
	assert.NotContains(t, ndjson, "t-3")

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, m, loaded.Manifest)

	_, _, err = Create(ctx, f.store, f.events, CreateOptions{OutputDir: dir})
	assert.ErrorIs(t, err, ErrBundleExists)
}

func TestCreateFilters(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.save(t, "t-1", "Habits")
	f.save(t, "t-2", "Work")
	f.save(t, "t-3", "Homework")
	require.NoError(t, f.store.SetArchived(ctx, "t-3", true))

	b, _, err := Create(ctx, f.store, nil, CreateOptions{OutputDir: t.TempDir(), Match: "*work", WithArchived: true})
	require.NoError(t, err)
	var names []string
	for _, e := range b.Manifest.Trackers {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"Work", "Homework"}, names)
	assert.False(t, b.Manifest.WithEvents)

	b, _, err = Create(ctx, f.store, nil, CreateOptions{OutputDir: t.TempDir(), Match: "t-1"})
	require.NoError(t, err)
	require.Len(t, b.Manifest.Trackers, 1)
	assert.Equal(t, "Habits", b.Manifest.Trackers[0].Name)
}

func TestAssignFilesDeduplicates(t *testing.T) {
	files := assignFiles([]store.Summary{
		{TrackerID: "a", Name: "Habits"},
		{TrackerID: "A", Name: "habits"},
		{TrackerID: "!!", Name: "???"},
	})
	assert.Equal(t, "trackers/habits-a.json", files["a"])
	assert.Equal(t, "trackers/habits-a-2.json", files["A"])
	assert.Equal(t, "trackers/tracker-tracker.json", files["!!"])
}

func TestApplyRestoresIntoFreshDatabase(t *testing.T) {
	ctx := context.Background()
	src := setup(t)
	src.save(t, "t-1", "Habits")
	src.save(t, "t-2", "Work")

	dir := t.TempDir()
	b, _, err := Create(ctx, src.store, nil, CreateOptions{OutputDir: dir, Jobs: 1})
	require.NoError(t, err)

	dst := setup(t)
	im := importer.New(dst.store, nil, nil)

	var progress bytes.Buffer
	applied, result := Apply(ctx, b, im, ApplyOptions{Mode: importer.ModeMerge, Progress: &progress})
	require.NoError(t, result.Err())
	require.Len(t, applied, 2)
	assert.Equal(t, importer.ActionCreated, applied[0].Result.Action)
	assert.Contains(t, progress.String(), "t-1: ok")

	for _, e := range b.Manifest.Trackers {
		got, err := dst.store.Load(ctx, e.TrackerID)
		require.NoError(t, err)
		assert.Equal(t, e.Name, got.TrackerName)
	}

	// applying again merges into what is there
	applied, result = Apply(ctx, b, im, ApplyOptions{Mode: importer.ModeMerge})
	require.NoError(t, result.Err())
	assert.Equal(t, importer.ActionMerged, applied[0].Result.Action)
	assert.Zero(t, applied[0].Result.Report.ClicksAdded)

	// create mode refuses existing trackers
	_, result = Apply(ctx, b, im, ApplyOptions{Mode: importer.ModeCreate, ContinueOnError: true})
	assert.Equal(t, 2, result.Failed)
	assert.ErrorIs(t, result.Errors[0].Error, importer.ErrTrackerExists)
}

func TestApplyDetectsModifiedFile(t *testing.T) {
	ctx := context.Background()
	src := setup(t)
	src.save(t, "t-1", "Habits")
	src.save(t, "t-2", "Work")

	dir := t.TempDir()
	b, _, err := Create(ctx, src.store, nil, CreateOptions{OutputDir: dir})
	require.NoError(t, err)

	var habits Entry
	for _, e := range b.Manifest.Trackers {
		if e.TrackerID == "t-1" {
			habits = e
		}
	}
	path := filepath.Join(dir, habits.File)
	data := testutil.ReadFile(t, path)
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(data, `"Water"`, `"Juice"`, 1)), 0644))

	dst := setup(t)
	applied, result := Apply(ctx, b, importer.New(dst.store, nil, nil), ApplyOptions{ContinueOnError: true})
	assert.Equal(t, 1, result.Failed)
	assert.ErrorIs(t, result.Errors[0].Error, ErrChecksum)
	require.Len(t, applied, 1)
	assert.Equal(t, "t-2", applied[0].Entry.TrackerID)

	ok, err := dst.store.Exists(ctx, "t-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyDryRun(t *testing.T) {
	ctx := context.Background()
	src := setup(t)
	src.save(t, "t-1", "Habits")
	b, _, err := Create(ctx, src.store, nil, CreateOptions{OutputDir: t.TempDir()})
	require.NoError(t, err)

	dst := setup(t)
	applied, result := Apply(ctx, b, importer.New(dst.store, nil, nil), ApplyOptions{DryRun: true})
	require.NoError(t, result.Err())
	require.Len(t, applied, 1)
	assert.True(t, applied[0].Result.DryRun)

	list, err := dst.store.List(ctx, store.ListOptions{All: true})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLoadManifestErrors(t *testing.T) {
	write := func(t *testing.T, manifest string) string {
		dir := t.TempDir()
		testutil.WriteFile(t, dir, manifestFile, manifest)
		return dir
	}

	tests := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{"missing version", `{"timestamp":"x"}`, "missing machine_interface_version"},
		{"newer version", `{"machine_interface_version":2}`, "doesn't match"},
		{"escaping file", `{"machine_interface_version":1,"trackers":[{"tracker_id":"t","file":"../x.json"}]}`, "outside"},
		{"missing id", `{"machine_interface_version":1,"trackers":[{"file":"trackers/x.json"}]}`, "no tracker_id"},
		{"not json", `nope`, "failed to parse manifest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadManifest(write(t, tt.manifest))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadManifest(t.TempDir())
	assert.ErrorContains(t, err, "failed to read manifest")
}
