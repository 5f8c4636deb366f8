package merge

import (
	"testing"

	"github.com/lherron/wilds/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackersIdempotent(t *testing.T) {
	s := baseTracker()
	got := Trackers(s, s)
	assert.JSONEq(t, mustJSON(t, s), mustJSON(t, got))
}

func TestTrackersWaterHydration(t *testing.T) {
	base := func() *domain.Tracker {
		b := button("water", "Water", 50, 200, 100)
		b.CreatedAt = 50
		return &domain.Tracker{
			TrackerID:       "t1",
			TrackerName:     "T",
			Screens:         []domain.Screen{screen("main", "Main", 50, b)},
			CurrentScreenID: "main",
			LastModified:    200,
		}
	}

	// Replica A increments at t=300.
	a := base()
	a.Screens[0].Buttons[0].Clicks = clicks(300, 200, 100)
	a.Screens[0].Buttons[0].Count = 3
	a.LastModified = 300

	// Replica B renames at t=250 and increments at t=400.
	b := base()
	btn := &b.Screens[0].Buttons[0]
	btn.Text = "Hydration"
	btn.Touch(250)
	btn.Clicks = clicks(400, 200, 100)
	btn.Count = 3
	b.ChangeLog = []domain.EntityChange{change(domain.EntityButton, "water", domain.ChangeRename, 250, "Water", "Hydration")}
	b.LastModified = 400

	for name, got := range map[string]*domain.Tracker{"a,b": Trackers(a, b), "b,a": Trackers(b, a)} {
		t.Run(name, func(t *testing.T) {
			require.Len(t, got.Screens, 1)
			require.Len(t, got.Screens[0].Buttons, 1)
			water := got.Screens[0].Buttons[0]
			assert.Equal(t, "Hydration", water.Text)
			assert.Equal(t, []int64{400, 300, 200, 100}, clickTimes(water))
			assert.Equal(t, 4, water.Count)
		})
	}
}

func TestTrackersRenameFromLogOnly(t *testing.T) {
	// The renaming replica's snapshot is stale but its log carries the rename.
	a := baseTracker()
	b := baseTracker()
	b.ChangeLog = append(b.ChangeLog, change(domain.EntityButton, "b1", domain.ChangeRename, 250, "Water", "Hydration"))

	got := Trackers(a, b)
	_, water := got.FindButton("b1")
	require.NotNil(t, water)
	assert.Equal(t, "Hydration", water.Text)
	assert.Equal(t, int64(250), water.LastModified)
}

func TestTrackersMoveReplay(t *testing.T) {
	// A renames b1 at t=600 while it stays on s1.
	a := baseTracker()
	_, b1 := a.FindButton("b1")
	b1.Text = "Tea"
	b1.Touch(600)
	a.ChangeLog = append(a.ChangeLog, change(domain.EntityButton, "b1", domain.ChangeRename, 600, "Water", "Tea"))

	// B moves b1 to s2 at t=700.
	b := baseTracker()
	moved := b.Screens[0].Buttons[0]
	b.Screens[0].Buttons = b.Screens[0].Buttons[1:]
	moved.Touch(700)
	b.Screens[1].Buttons = append(b.Screens[1].Buttons, moved)
	b.ChangeLog = append(b.ChangeLog, change(domain.EntityButton, "b1", domain.ChangeMove, 700, "s1", "s2"))

	for name, got := range map[string]*domain.Tracker{"a,b": Trackers(a, b), "b,a": Trackers(b, a)} {
		t.Run(name, func(t *testing.T) {
			owner, btn := got.FindButton("b1")
			require.NotNil(t, btn)
			assert.Equal(t, "s2", owner.ID)
			assert.Equal(t, "Tea", btn.Text)
			assert.Equal(t, []string{"b2"}, buttonIDs(*got.Screen("s1")))
		})
	}
}

func TestTrackersDisjointAdditions(t *testing.T) {
	a := baseTracker()
	a.Screens[0].Buttons = append(a.Screens[0].Buttons, button("x", "X", 600))
	b := baseTracker()
	b.Screens[0].Buttons = append(b.Screens[0].Buttons, button("y", "Y", 700))
	b.Questionnaires = append(b.Questionnaires, domain.Questionnaire{Envelope: env("q2", 1, 700), Name: "Sleep"})

	got := Trackers(a, b)
	assert.Equal(t, []string{"b1", "b2", "x", "y"}, buttonIDs(findScreen(t, got.Screens, "s1")))
	assert.NotNil(t, got.Questionnaire("q2"))
}

func TestTrackersTopLevelFields(t *testing.T) {
	tests := []struct {
		name  string
		a, b  func(*domain.Tracker)
		check func(t *testing.T, got *domain.Tracker)
	}{
		{
			name: "archive is sticky",
			a:    func(*domain.Tracker) {},
			b:    func(tr *domain.Tracker) { tr.Archived = true },
			check: func(t *testing.T, got *domain.Tracker) {
				assert.True(t, got.Archived)
			},
		},
		{
			name: "name from newer side",
			a:    func(tr *domain.Tracker) { tr.TrackerName = "Local" },
			b:    func(tr *domain.Tracker) { tr.TrackerName = "Remote"; tr.LastModified = 900 },
			check: func(t *testing.T, got *domain.Tracker) {
				assert.Equal(t, "Remote", got.TrackerName)
				assert.Equal(t, int64(900), got.LastModified)
			},
		},
		{
			name: "name tie keeps first",
			a:    func(tr *domain.Tracker) { tr.TrackerName = "Local" },
			b:    func(tr *domain.Tracker) { tr.TrackerName = "Remote" },
			check: func(t *testing.T, got *domain.Tracker) {
				assert.Equal(t, "Local", got.TrackerName)
			},
		},
		{
			name: "id from first and schema version max",
			a:    func(tr *domain.Tracker) { tr.SchemaVersion = 0 },
			b:    func(tr *domain.Tracker) { tr.TrackerID = "other"; tr.SchemaVersion = 1 },
			check: func(t *testing.T, got *domain.Tracker) {
				assert.Equal(t, "t1", got.TrackerID)
				assert.Equal(t, 1, got.SchemaVersion)
			},
		},
		{
			name: "current screen kept when active",
			a:    func(tr *domain.Tracker) { tr.CurrentScreenID = "s2" },
			b:    func(tr *domain.Tracker) { tr.CurrentScreenID = "s1" },
			check: func(t *testing.T, got *domain.Tracker) {
				assert.Equal(t, "s2", got.CurrentScreenID)
			},
		},
		{
			name: "current screen falls back when archived by the other side",
			a:    func(*domain.Tracker) {},
			b: func(tr *domain.Tracker) {
				tr.Screens[0].Archived = true
				tr.Screens[0].Touch(800)
				tr.ChangeLog = append(tr.ChangeLog, change(domain.EntityScreen, "s1", domain.ChangeArchive, 800, "", ""))
			},
			check: func(t *testing.T, got *domain.Tracker) {
				assert.Equal(t, "s2", got.CurrentScreenID)
			},
		},
		{
			name: "current screen falls back to archived screen",
			a: func(tr *domain.Tracker) {
				for i := range tr.Screens {
					tr.Screens[i].Archived = true
				}
			},
			b: func(tr *domain.Tracker) {
				for i := range tr.Screens {
					tr.Screens[i].Archived = true
				}
			},
			check: func(t *testing.T, got *domain.Tracker) {
				assert.Equal(t, "s1", got.CurrentScreenID)
			},
		},
		{
			name: "current screen empty without screens",
			a:    func(tr *domain.Tracker) { tr.Screens = nil },
			b:    func(tr *domain.Tracker) { tr.Screens = nil },
			check: func(t *testing.T, got *domain.Tracker) {
				assert.Empty(t, got.Screens)
				assert.Equal(t, "", got.CurrentScreenID)
			},
		},
		{
			name: "notifications deduplicated and dismissal sticky",
			a:    func(*domain.Tracker) {},
			b: func(tr *domain.Tracker) {
				tr.Notifications[0].ID = "n1-remote"
				tr.Notifications[0].Dismissed = true
				tr.Notifications = append(tr.Notifications, domain.NotificationData{ID: "n2", QuestionnaireID: "q1", ScheduledFor: 2000})
			},
			check: func(t *testing.T, got *domain.Tracker) {
				require.Len(t, got.Notifications, 2)
				assert.Equal(t, "n1", got.Notifications[0].ID)
				assert.True(t, got.Notifications[0].Dismissed)
				assert.Equal(t, int64(2000), got.Notifications[1].ScheduledFor)
			},
		},
		{
			name: "filled questionnaires union with response merge",
			a: func(tr *domain.Tracker) {
				tr.FilledQuestionnaires[0].Responses = append(tr.FilledQuestionnaires[0].Responses,
					domain.QuestionResponse{QuestionID: "qq2", Value: -1, LastModified: 500})
			},
			b: func(tr *domain.Tracker) {
				f := &tr.FilledQuestionnaires[0]
				f.Responses[0] = domain.QuestionResponse{
					QuestionID: "qq1", Value: 0, LastModified: 700,
					EditHistory: []domain.ResponseEdit{{Timestamp: 700, PreviousValue: 1, NewValue: 0}},
				}
				f.LastModified = 700
				tr.FilledQuestionnaires = append(tr.FilledQuestionnaires, domain.FilledQuestionnaire{ID: "f2", QuestionnaireID: "q1", FilledAt: 900})
			},
			check: func(t *testing.T, got *domain.Tracker) {
				require.Len(t, got.FilledQuestionnaires, 2)
				f := got.FilledQuestionnaires[0]
				require.Len(t, f.Responses, 2)
				assert.Equal(t, 0, f.Responses[0].Value)
				assert.Len(t, f.Responses[0].EditHistory, 1)
				assert.Equal(t, -1, f.Responses[1].Value)
				assert.Equal(t, int64(700), f.LastModified)
				assert.Equal(t, "f2", got.FilledQuestionnaires[1].ID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := baseTracker(), baseTracker()
			tt.a(a)
			tt.b(b)
			tt.check(t, Trackers(a, b))
		})
	}
}

func TestTrackersDoesNotMutateInputs(t *testing.T) {
	a := baseTracker()
	b := baseTracker()
	b.Screens[0].Buttons[0].Clicks = clicks(900, 200, 100)
	b.ChangeLog = append(b.ChangeLog,
		change(domain.EntityButton, "b2", domain.ChangeMove, 800, "s1", "s2"),
		change(domain.EntityScreen, "s1", domain.ChangeRename, 810, "Main", "Home"),
	)
	beforeA, beforeB := mustJSON(t, a), mustJSON(t, b)

	got := Trackers(a, b)
	got.Screens[0].Buttons[0].Clicks[0].Timestamp = 1
	got.ChangeLog[0].EntityID = "x"

	assert.JSONEq(t, beforeA, mustJSON(t, a))
	assert.JSONEq(t, beforeB, mustJSON(t, b))
}

func TestTrackersNilInputs(t *testing.T) {
	got := Trackers(nil, baseTracker())
	assert.Equal(t, "t1", got.TrackerID)
	assert.Equal(t, "Daily", got.TrackerName)
	assert.Len(t, got.Screens, 2)
	require.NoError(t, domain.ValidateTracker(got))

	noID := baseTracker()
	noID.TrackerID = ""
	assert.Equal(t, "t1", Trackers(noID, baseTracker()).TrackerID)
	assert.Equal(t, "t1", Trackers(baseTracker(), noID).TrackerID)

	got = Trackers(baseTracker(), nil)
	assert.Equal(t, "t1", got.TrackerID)
	assert.Equal(t, "Daily", got.TrackerName)
}

func TestTrackersWithReport(t *testing.T) {
	a := baseTracker()
	b := baseTracker()
	b.Screens[0].Buttons[0].Clicks = clicks(900, 200, 100)
	b.Screens[0].Buttons[1].Text = "Run"
	b.Screens[0].Buttons[1].Touch(850)
	b.Screens = append(b.Screens, screen("s3", "Night", 860, button("b9", "Sleep", 860, 870, 880)))
	b.FilledQuestionnaires = append(b.FilledQuestionnaires, domain.FilledQuestionnaire{ID: "f2", QuestionnaireID: "q1"})
	b.ChangeLog = append(b.ChangeLog,
		change(domain.EntityButton, "b2", domain.ChangeRename, 850, "Exercise", "Run"),
		change(domain.EntityButton, "b3", domain.ChangeDelete, 855, "", ""),
	)

	merged, report := TrackersWithReport(a, b)
	require.NotNil(t, merged)
	assert.Equal(t, 1, report.ScreensAdded)
	assert.Equal(t, 1, report.ButtonsAdded)
	assert.Equal(t, 3, report.ClicksAdded)
	assert.Equal(t, 1, report.FilledAdded)
	assert.Equal(t, 2, report.ChangesAdded)
	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 0, report.QuestionnairesAdded)

	require.True(t, report.HasConflicts())
	require.Len(t, report.Conflicts, 1)
	c := report.Conflicts[0]
	assert.Equal(t, domain.EntityButton, c.EntityType)
	assert.Equal(t, "b2", c.EntityID)
	assert.Equal(t, "Exercise", c.Local)
	assert.Equal(t, "Run", c.Remote)
	assert.Equal(t, "Run", c.Winner)
	assert.Contains(t, report.FormatConflicts(), `local="Exercise", remote="Run", kept="Run"`)
}

func TestReportWithoutConflicts(t *testing.T) {
	_, report := TrackersWithReport(baseTracker(), baseTracker())
	assert.False(t, report.HasConflicts())
	assert.Equal(t, "", report.FormatConflicts())
	assert.Equal(t, Report{}, *report)
}
