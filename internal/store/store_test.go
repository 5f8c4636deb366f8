package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/events"
	"github.com/lherron/wilds/internal/snapshot"
	"github.com/lherron/wilds/internal/testutil"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, _ := testutil.TempDB(t)
	s := New(database, nil)
	s.Now = testutil.NewClock(50_000).Now
	return s
}

func eventTypes(t *testing.T, s *Store, trackerID string) []string {
	t.Helper()
	evs, err := events.NewReader(s.DB().DB).List(trackerID, 0)
	require.NoError(t, err)
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.EventType
	}
	return out
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	tr := testutil.Tracker("t-1")

	require.NoError(t, s.Save(ctx, tr))

	got, err := s.Load(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, tr, got)

	ok, err := s.Exists(ctx, "t-1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []string{events.TypeSaved}, eventTypes(t, s, "t-1"))
}

func TestSaveUpserts(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	tr := testutil.Tracker("t-1")
	require.NoError(t, s.Save(ctx, tr))

	tr.TrackerName = "Renamed"
	tr.LastModified = 9000
	require.NoError(t, s.Save(ctx, tr))

	list, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0].Name)
	assert.Equal(t, int64(9000), list[0].LastModified)
	assert.Equal(t, domain.CurrentSchemaVersion, list[0].SchemaVersion)

	rev, err := snapshot.Rev(tr)
	require.NoError(t, err)
	assert.Equal(t, rev, list[0].SnapshotRev)

	assert.Len(t, eventTypes(t, s, "t-1"), 2)
}

func TestSaveRejectsMissingID(t *testing.T) {
	s := setupStore(t)
	assert.Error(t, s.Save(context.Background(), &domain.Tracker{}))
	assert.Error(t, s.Save(context.Background(), nil))
}

func TestLoadNotFound(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	_, err := s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadMigratesAndSavesBack(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	legacy := map[string]interface{}{
		"trackerId":   "old",
		"trackerName": "Old Tracker",
		"screens": []interface{}{
			map[string]interface{}{
				"id":   "screen-1",
				"name": "Main",
				"buttons": []interface{}{
					map[string]interface{}{
						"id":     "button-1",
						"text":   "Water",
						"count":  7,
						"clicks": []interface{}{map[string]interface{}{"timestamp": 100, "date": "1970-01-01"}},
					},
				},
			},
		},
		"currentScreenId": "screen-1",
	}
	state, err := json.Marshal(legacy)
	require.NoError(t, err)
	_, err = s.DB().Exec(`INSERT INTO trackers (tracker_id, name, state) VALUES (?, ?, ?)`, "old", "Old Tracker", string(state))
	require.NoError(t, err)

	got, err := s.Load(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, domain.CurrentSchemaVersion, got.SchemaVersion)
	btn := got.Screens[0].Buttons[0]
	assert.Equal(t, 1, btn.Count, "count is re-derived from clicks")
	assert.Equal(t, 1, btn.EntityVersion)
	assert.Equal(t, int64(50_000), btn.CreatedAt)
	assert.NotNil(t, got.ChangeLog)
	assert.NotNil(t, got.Questionnaires)

	var version int
	require.NoError(t, s.DB().QueryRow(`SELECT schema_version FROM trackers WHERE tracker_id = 'old'`).Scan(&version))
	assert.Equal(t, domain.CurrentSchemaVersion, version)
	assert.Equal(t, []string{events.TypeSaved}, eventTypes(t, s, "old"))

	// a second load is a plain read
	again, err := s.Load(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Len(t, eventTypes(t, s, "old"), 1)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	for i, id := range []string{"a", "b", "c"} {
		tr := testutil.Tracker(id)
		tr.LastModified = int64(1000 * (i + 1))
		require.NoError(t, s.Save(ctx, tr))
	}
	require.NoError(t, s.SetArchived(ctx, "b", true))

	ids := func(list []Summary) []string {
		out := []string{}
		for _, sum := range list {
			out = append(out, sum.TrackerID)
		}
		return out
	}

	active, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(active))

	archived, err := s.List(ctx, ListOptions{Archived: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(archived))
	assert.True(t, archived[0].Archived)

	all, err := s.List(ctx, ListOptions{All: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids(all))
}

func TestSetArchived(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	require.NoError(t, s.Save(ctx, testutil.Tracker("t-1")))

	require.NoError(t, s.SetArchived(ctx, "t-1", true))
	got, err := s.Load(ctx, "t-1")
	require.NoError(t, err)
	assert.True(t, got.Archived)

	// no-op when already archived
	require.NoError(t, s.SetArchived(ctx, "t-1", true))
	require.NoError(t, s.SetArchived(ctx, "t-1", false))

	assert.Equal(t, []string{events.TypeUnarchived, events.TypeArchived, events.TypeSaved}, eventTypes(t, s, "t-1"))
	assert.ErrorIs(t, s.SetArchived(ctx, "missing", true), ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	require.NoError(t, s.Save(ctx, testutil.Tracker("t-1")))

	require.NoError(t, s.Delete(ctx, "t-1"))
	_, err := s.Load(ctx, "t-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "t-1"), ErrNotFound)

	// history outlives the tracker
	assert.Equal(t, []string{events.TypeDeleted, events.TypeSaved}, eventTypes(t, s, "t-1"))
}

func TestContextCancelled(t *testing.T) {
	s := setupStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	assert.Error(t, s.Save(ctx, testutil.Tracker("t-1")))
}
