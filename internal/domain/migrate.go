package domain

import (
	"math/rand/v2"

	"github.com/lherron/wilds/internal/id"
)

// CurrentSchemaVersion is the schema version written by this build
const CurrentSchemaVersion = 1

// NeedsMigration reports whether a stored tracker predates the current schema
func NeedsMigration(t *Tracker) bool {
	return t.SchemaVersion != CurrentSchemaVersion
}

// Migrate brings a tracker to the current schema in place. Missing ids are
// generated, missing envelope fields get explicit defaults stamped with now,
// and nil collections become empty ones.
func Migrate(t *Tracker, now int64) {
	if t.SchemaVersion == CurrentSchemaVersion {
		return
	}

	for i := range t.Screens {
		s := &t.Screens[i]
		fillEnvelope(&s.Envelope, id.KindScreen, now)
		if s.Buttons == nil {
			s.Buttons = []Button{}
		}
		for j := range s.Buttons {
			b := &s.Buttons[j]
			fillEnvelope(&b.Envelope, id.KindButton, now)
			if b.Clicks == nil {
				b.Clicks = []ClickRecord{}
			}
			b.Count = DeriveCount(b.Clicks)
		}
	}

	for i := range t.Questionnaires {
		q := &t.Questionnaires[i]
		fillEnvelope(&q.Envelope, id.KindQuestionnaire, now)
		if q.Frequency.Type == "" {
			q.Frequency.Type = FrequencyDaily
		}
		if q.Questions == nil {
			q.Questions = []Question{}
		}
		for j := range q.Questions {
			fillEnvelope(&q.Questions[j].Envelope, id.KindQuestion, now)
			if q.Questions[j].SubscribedButtonIDs == nil {
				q.Questions[j].SubscribedButtonIDs = []string{}
			}
		}
	}

	if t.Questionnaires == nil {
		t.Questionnaires = []Questionnaire{}
	}
	if t.FilledQuestionnaires == nil {
		t.FilledQuestionnaires = []FilledQuestionnaire{}
	}
	if t.Notifications == nil {
		t.Notifications = []NotificationData{}
	}
	if t.ChangeLog == nil {
		t.ChangeLog = []EntityChange{}
	}

	t.SchemaVersion = CurrentSchemaVersion
}

func fillEnvelope(e *Envelope, kind id.Kind, now int64) {
	if e.ID == "" {
		e.ID = id.Format(kind, now, rand.IntN(10000))
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = now
	}
	if e.LastModified == 0 {
		e.LastModified = now
	}
	if e.EntityVersion == 0 {
		e.EntityVersion = 1
	}
}
