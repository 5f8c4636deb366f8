// Package tracker implements the user-facing edits of a tracker. Every edit
// mutates the tracker in place, bumps the version of the entity it touches
// and appends the change-log record the merge engine replays.
package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/id"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrLastActiveScreen = errors.New("cannot remove the last active screen")
	ErrInvalidName      = errors.New("name must not be empty")
	ErrZeroCount        = errors.New("count is already zero")
	ErrInvalidIndex     = errors.New("index out of range")
	ErrInactive         = errors.New("questionnaire is not active")
)

// Default content of a new tracker
const (
	DefaultScreenName = "Main Screen"
	DefaultNotifyTime = "20:00"
)

var defaultButtons = []string{"Water", "Exercise"}

// Editor applies edits with an injectable clock and id source
type Editor struct {
	Now func() time.Time
	IDs id.Generator

	// NotifyTime is the reminder time of new questionnaires; empty means
	// DefaultNotifyTime
	NotifyTime string
}

// NewEditor returns an editor on the wall clock
func NewEditor() *Editor {
	return &Editor{Now: time.Now, IDs: id.RandomGenerator{Now: time.Now}}
}

func (e *Editor) clock() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Editor) now() int64 {
	return e.clock().UnixMilli()
}

func (e *Editor) notifyTime() string {
	if e.NotifyTime == "" {
		return DefaultNotifyTime
	}
	return e.NotifyTime
}

func (e *Editor) newID(kind id.Kind) string {
	if e.IDs == nil {
		return id.RandomGenerator{Now: e.Now}.New(kind)
	}
	return e.IDs.New(kind)
}

// NormalizeName trims a user-entered label and converts it to NFC so the
// same name typed on two devices compares equal.
func NormalizeName(s string) (string, error) {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return "", ErrInvalidName
	}
	return s, nil
}

func notFound(kind domain.EntityType, entityID string) error {
	return fmt.Errorf("%s %s: %w", kind, entityID, ErrNotFound)
}

// record appends a change and stamps the tracker
func (e *Editor) record(t *domain.Tracker, c domain.EntityChange) {
	t.Log(c)
	e.stamp(t, c.Timestamp)
}

func (e *Editor) stamp(t *domain.Tracker, now int64) {
	if now > t.LastModified {
		t.LastModified = now
	}
}

// New creates a tracker with the default screen and buttons
func (e *Editor) New(name string) (*domain.Tracker, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	now := e.now()

	screen := domain.Screen{
		Envelope: domain.Envelope{ID: e.newID(id.KindScreen), EntityVersion: 1, CreatedAt: now, LastModified: now},
		Name:     DefaultScreenName,
		Buttons:  make([]domain.Button, 0, len(defaultButtons)),
	}
	for _, text := range defaultButtons {
		screen.Buttons = append(screen.Buttons, domain.Button{
			Envelope: domain.Envelope{ID: e.newID(id.KindButton), EntityVersion: 1, CreatedAt: now, LastModified: now},
			Text:     text,
			Clicks:   []domain.ClickRecord{},
		})
	}

	return &domain.Tracker{
		TrackerID:            id.NewTrackerID(),
		TrackerName:          name,
		Screens:              []domain.Screen{screen},
		CurrentScreenID:      screen.ID,
		Questionnaires:       []domain.Questionnaire{},
		FilledQuestionnaires: []domain.FilledQuestionnaire{},
		Notifications:        []domain.NotificationData{},
		SchemaVersion:        domain.CurrentSchemaVersion,
		ChangeLog:            []domain.EntityChange{},
		LastModified:         now,
	}, nil
}

// Rename changes the tracker name
func (e *Editor) Rename(t *domain.Tracker, name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	t.TrackerName = name
	e.stamp(t, e.now())
	return nil
}

// moveIndex moves element from to position to, in place
func moveIndex[T any](s []T, from, to int) error {
	if from < 0 || from >= len(s) || to < 0 || to >= len(s) {
		return fmt.Errorf("%w: %d -> %d (len %d)", ErrInvalidIndex, from, to, len(s))
	}
	v := s[from]
	if from < to {
		copy(s[from:to], s[from+1:to+1])
	} else {
		copy(s[to+1:from+1], s[to:from])
	}
	s[to] = v
	return nil
}

// splitArchived partitions entities keeping relative order
func splitArchived[T any](s []T, archived func(*T) bool) (visible, hidden []T) {
	for i := range s {
		if archived(&s[i]) {
			hidden = append(hidden, s[i])
		} else {
			visible = append(visible, s[i])
		}
	}
	return visible, hidden
}
