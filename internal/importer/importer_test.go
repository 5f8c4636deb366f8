package importer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/events"
	"github.com/lherron/wilds/internal/share"
	"github.com/lherron/wilds/internal/store"
	"github.com/lherron/wilds/internal/testutil"
)

type fixture struct {
	importer *Importer
	store    *store.Store
	events   *events.Reader
}

func setup(t *testing.T) fixture {
	t.Helper()
	database, _ := testutil.TempDB(t)
	st := store.New(database, nil)
	im := New(st, events.NewWriter(database.DB), nil)
	im.Now = testutil.NewClock(50_000).Now
	return fixture{importer: im, store: st, events: events.NewReader(database.DB)}
}

func (f fixture) eventTypes(t *testing.T, trackerID string) []string {
	t.Helper()
	evs, err := f.events.List(trackerID, 0)
	require.NoError(t, err)
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.EventType
	}
	return out
}

func encode(t *testing.T, tr *domain.Tracker) []byte {
	t.Helper()
	s, err := share.Encode(tr)
	require.NoError(t, err)
	return []byte(s)
}

// remoteCopy returns the fixture as edited on another device: one more
// Water click and Exercise renamed to Workout.
func remoteCopy() *domain.Tracker {
	tr := testutil.Tracker("t-1")
	b1 := &tr.Screens[0].Buttons[0]
	b1.Clicks = append([]domain.ClickRecord{{Timestamp: 3000, Date: "1970-01-01"}}, b1.Clicks...)
	b1.Count = 3

	b2 := &tr.Screens[0].Buttons[1]
	b2.Text = "Workout"
	b2.EntityVersion = 2
	b2.LastModified = 4000
	tr.ChangeLog = []domain.EntityChange{{
		EntityID: "b2", EntityType: domain.EntityButton, ChangeType: domain.ChangeRename,
		Timestamp: 4000, OldValue: "Exercise", NewValue: "Workout",
	}}
	tr.LastModified = 4000
	return tr
}

func TestImportCreate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	tr := testutil.Tracker("t-1")

	res, err := f.importer.Import(ctx, encode(t, tr), Options{})
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, res.Action)
	assert.Equal(t, ModeCreate, res.Mode)
	assert.Equal(t, share.FormatShare, res.Format)
	assert.Equal(t, "Tracker t-1", res.TrackerName)
	assert.Nil(t, res.Report)
	assert.Regexp(t, `^sha256:`, res.SnapshotRev)

	got, err := f.store.Load(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, tr, got)
	assert.Equal(t, []string{events.TypeImported, events.TypeSaved}, f.eventTypes(t, "t-1"))

	_, err = f.importer.Import(ctx, encode(t, tr), Options{Mode: ModeCreate})
	assert.ErrorIs(t, err, ErrTrackerExists)
}

func TestImportOverwrite(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	require.NoError(t, f.store.Save(ctx, testutil.Tracker("t-1")))

	replacement := testutil.Tracker("t-1")
	replacement.TrackerName = "Replaced"
	replacement.Screens = replacement.Screens[:1]
	data, err := json.Marshal(replacement)
	require.NoError(t, err)

	res, err := f.importer.Import(ctx, data, Options{Mode: ModeOverwrite})
	require.NoError(t, err)
	assert.Equal(t, ActionReplaced, res.Action)
	assert.Equal(t, share.FormatJSON, res.Format)

	got, err := f.store.Load(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Replaced", got.TrackerName)
	assert.Len(t, got.Screens, 1)
}

func TestImportMerge(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	require.NoError(t, f.store.Save(ctx, testutil.Tracker("t-1")))

	res, err := f.importer.Import(ctx, encode(t, remoteCopy()), Options{Mode: ModeMerge})
	require.NoError(t, err)
	assert.Equal(t, ActionMerged, res.Action)
	require.NotNil(t, res.Report)
	assert.Equal(t, 1, res.Report.ClicksAdded)
	assert.Equal(t, 1, res.Report.ChangesAdded)
	require.Len(t, res.Report.Conflicts, 1)
	assert.Equal(t, "Workout", res.Report.Conflicts[0].Winner)

	got, err := f.store.Load(ctx, "t-1")
	require.NoError(t, err)
	_, water := got.FindButton("b1")
	require.NotNil(t, water)
	assert.Equal(t, 3, water.Count)
	_, workout := got.FindButton("b2")
	require.NotNil(t, workout)
	assert.Equal(t, "Workout", workout.Text)
	assert.Equal(t, int64(50_000), got.LastModified, "merged tracker is stamped with the import time")

	assert.Equal(t, []string{events.TypeMerged, events.TypeSaved, events.TypeSaved}, f.eventTypes(t, "t-1"))

	evs, err := f.events.List("t-1", 1)
	require.NoError(t, err)
	require.NotNil(t, evs[0].Payload)
	assert.Contains(t, *evs[0].Payload, `"clicks_added":1`)
}

func TestImportMergeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	require.NoError(t, f.store.Save(ctx, testutil.Tracker("t-1")))

	_, err := f.importer.Import(ctx, encode(t, remoteCopy()), Options{Mode: ModeMerge})
	require.NoError(t, err)
	first, err := f.store.Load(ctx, "t-1")
	require.NoError(t, err)

	res, err := f.importer.Import(ctx, encode(t, remoteCopy()), Options{Mode: ModeMerge})
	require.NoError(t, err)
	assert.Zero(t, res.Report.ClicksAdded)
	assert.Zero(t, res.Report.ChangesAdded)
	assert.Empty(t, res.Report.Conflicts)

	second, err := f.store.Load(ctx, "t-1")
	require.NoError(t, err)
	first.LastModified, second.LastModified = 0, 0
	assert.Equal(t, first, second)
}

func TestImportMergeWithoutLocalCopy(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	res, err := f.importer.Import(ctx, encode(t, remoteCopy()), Options{Mode: ModeMerge})
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, res.Action)
	assert.Nil(t, res.Report)

	got, err := f.store.Load(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4000), got.LastModified)
}

func TestImportDryRun(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	require.NoError(t, f.store.Save(ctx, testutil.Tracker("t-1")))

	res, err := f.importer.Import(ctx, encode(t, remoteCopy()), Options{Mode: ModeMerge, DryRun: true})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Contains(t, res.Diff, "--- current")
	assert.Contains(t, res.Diff, "+++ incoming")
	assert.Contains(t, res.Diff, `-          "text": "Exercise"`)
	assert.Contains(t, res.Diff, `+          "text": "Workout"`)

	got, err := f.store.Load(ctx, "t-1")
	require.NoError(t, err)
	_, b2 := got.FindButton("b2")
	assert.Equal(t, "Exercise", b2.Text)
	assert.Equal(t, []string{events.TypeSaved}, f.eventTypes(t, "t-1"))

	// dry run of a new tracker diffs against nothing
	res, err = f.importer.Import(ctx, encode(t, testutil.Tracker("t-2")), Options{DryRun: true})
	require.NoError(t, err)
	assert.Contains(t, res.Diff, `+  "trackerId": "t-2"`)
	ok, err := f.store.Exists(ctx, "t-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImportLegacyMigrates(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	old := testutil.Tracker("t-old")
	old.SchemaVersion = 0
	old.ChangeLog = nil
	old.Screens[0].Buttons[0].EntityVersion = 0
	old.Screens[0].Buttons[0].Count = 99
	data, err := share.EncodeLegacy(old)
	require.NoError(t, err)

	res, err := f.importer.Import(ctx, []byte(data), Options{})
	require.NoError(t, err)
	assert.Equal(t, share.FormatLegacy, res.Format)

	got, err := f.store.Load(ctx, "t-old")
	require.NoError(t, err)
	assert.Equal(t, domain.CurrentSchemaVersion, got.SchemaVersion)
	assert.Equal(t, 2, got.Screens[0].Buttons[0].Count)
	assert.Equal(t, 1, got.Screens[0].Buttons[0].EntityVersion)
	assert.NotNil(t, got.ChangeLog)
}

func TestImportRejects(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	badChange := testutil.Tracker("t-1")
	badChange.ChangeLog = []domain.EntityChange{{EntityID: "b1", EntityType: domain.EntityButton, ChangeType: "explode"}}
	badData, err := json.Marshal(badChange)
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    string
		opts    Options
		wantErr error
	}{
		{"unknown format", "hello", Options{}, share.ErrUnknownFormat},
		{"bad share string", "w1.!!!", Options{}, share.ErrInvalidShare},
		{"missing tracker id", `{"trackerName":"x","screens":[]}`, Options{}, domain.ErrInvalidTracker},
		{"bad change type", string(badData), Options{}, domain.ErrInvalidTracker},
		{"bad mode", `{"trackerId":"x"}`, Options{Mode: "upsert"}, ErrInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.importer.Import(ctx, []byte(tt.data), tt.opts)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	list, err := f.store.List(ctx, store.ListOptions{All: true})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestImportWithoutEventWriter(t *testing.T) {
	ctx := context.Background()
	database, _ := testutil.TempDB(t)
	st := store.New(database, nil)
	im := New(st, nil, nil)

	_, err := im.Import(ctx, encode(t, testutil.Tracker("t-1")), Options{})
	require.NoError(t, err)

	evs, err := events.NewReader(database.DB).List("t-1", 0)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeSaved, evs[0].EventType)
}

func TestDiff(t *testing.T) {
	a := testutil.Tracker("t-1")
	diff, err := Diff(a, a)
	require.NoError(t, err)
	assert.Empty(t, diff)

	diff, err = Diff(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, diff)
}
