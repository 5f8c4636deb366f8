package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lherron/wilds/internal/db"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/id"
)

// TempDB creates a temporary migrated SQLite database for testing
func TempDB(t *testing.T) (*db.DB, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := database.Migrate(); err != nil {
		database.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database, dbPath
}

// TempSQL is TempDB for callers that only need the raw handle
func TempSQL(t *testing.T) *sql.DB {
	t.Helper()
	database, _ := TempDB(t)
	return database.DB
}

// WriteFile writes content to a file in dir
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

// ReadFile reads content from a file
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(data)
}

// AssertStringContains asserts that a string contains a substring
func AssertStringContains(t *testing.T, str, substr string) {
	t.Helper()
	if !strings.Contains(str, substr) {
		t.Fatalf("Expected string to contain %q, got %q", substr, str)
	}
}

// Clock is a manually advanced clock. Every call to Now advances it by Step.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewClock returns a clock starting at the given epoch milliseconds that
// advances one millisecond per reading.
func NewClock(startMillis int64) *Clock {
	return &Clock{now: time.UnixMilli(startMillis).UTC(), Step: time.Millisecond}
}

// Now returns the current time and advances the clock
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.Step)
	return now
}

// Set moves the clock to the given time
func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// SeqIDs generates predictable entity ids: <kind>-<n>-0
type SeqIDs struct {
	mu sync.Mutex
	n  int64
}

// New returns the next id of the given kind
func (g *SeqIDs) New(kind id.Kind) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return id.Format(kind, g.n, 0)
}

var _ id.Generator = (*SeqIDs)(nil)

// Tracker returns a small tracker: screen "s1" with buttons "b1" (Water, two
// clicks) and "b2" (Exercise), screen "s2" with button "b3", and questionnaire
// "q1" with one binary question "qq1".
func Tracker(trackerID string) *domain.Tracker {
	e := func(entityID string, ts int64) domain.Envelope {
		return domain.Envelope{ID: entityID, EntityVersion: 1, CreatedAt: ts, LastModified: ts}
	}
	click := func(ts int64) domain.ClickRecord {
		return domain.ClickRecord{Timestamp: ts, Date: time.UnixMilli(ts).UTC().Format(time.DateOnly)}
	}

	return &domain.Tracker{
		TrackerID:   trackerID,
		TrackerName: fmt.Sprintf("Tracker %s", trackerID),
		Screens: []domain.Screen{
			{
				Envelope: e("s1", 1000),
				Name:     "Main Screen",
				Buttons: []domain.Button{
					{Envelope: e("b1", 1000), Text: "Water", Count: 2, Clicks: []domain.ClickRecord{click(2200), click(2100)}},
					{Envelope: e("b2", 1000), Text: "Exercise", Clicks: []domain.ClickRecord{}},
				},
			},
			{
				Envelope: e("s2", 1500),
				Name:     "Evening",
				Buttons:  []domain.Button{{Envelope: e("b3", 1500), Text: "Read", Clicks: []domain.ClickRecord{}}},
			},
		},
		CurrentScreenID: "s1",
		Questionnaires: []domain.Questionnaire{{
			Envelope:  e("q1", 1600),
			Name:      "Mood",
			Frequency: domain.Frequency{Type: domain.FrequencyDaily, Time: "20:00"},
			Questions: []domain.Question{{
				Envelope: e("qq1", 1600), Text: "Happy?", ScaleType: domain.ScaleBinary, SubscribedButtonIDs: []string{"b1"},
			}},
			IsActive: true,
		}},
		FilledQuestionnaires: []domain.FilledQuestionnaire{},
		Notifications:        []domain.NotificationData{},
		SchemaVersion:        domain.CurrentSchemaVersion,
		ChangeLog:            []domain.EntityChange{},
		LastModified:         2200,
	}
}
