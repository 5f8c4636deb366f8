// Package merge combines two independently edited copies of a tracker.
//
// Click logs merge as a PN-counter, entity metadata as last-writer-wins, and
// the merged change log is replayed over the merged entities to settle moves,
// deletes and renames. Every function is pure: inputs are never mutated.
package merge

import (
	"cmp"
	"slices"

	"github.com/lherron/wilds/internal/domain"
)

// Trackers merges two copies of the same tracker. a is the local copy: its
// tracker id is kept unless empty, and it wins full ties.
func Trackers(a, b *domain.Tracker) *domain.Tracker {
	a, b = orEmpty(a), orEmpty(b)

	log := ChangeLogs(a.ChangeLog, b.ChangeLog)
	screens := ReplayScreens(Screens(a.Screens, b.Screens), log)
	questionnaires := ReplayQuestionnaires(Questionnaires(a.Questionnaires, b.Questionnaires), log)

	name := a.TrackerName
	if b.LastModified > a.LastModified {
		name = b.TrackerName
	}

	return &domain.Tracker{
		TrackerID:            cmp.Or(a.TrackerID, b.TrackerID),
		TrackerName:          name,
		Screens:              screens,
		CurrentScreenID:      currentScreen(a.CurrentScreenID, screens),
		Questionnaires:       questionnaires,
		FilledQuestionnaires: FilledQuestionnaires(a.FilledQuestionnaires, b.FilledQuestionnaires),
		Notifications:        Notifications(a.Notifications, b.Notifications),
		Archived:             a.Archived || b.Archived,
		SchemaVersion:        max(a.SchemaVersion, b.SchemaVersion),
		ChangeLog:            log,
		LastModified:         max(a.LastModified, b.LastModified),
	}
}

func orEmpty(t *domain.Tracker) *domain.Tracker {
	if t == nil {
		return &domain.Tracker{}
	}
	return t
}

// currentScreen keeps the preferred pointer while it names an active screen,
// then falls back to the first active screen, then to the first screen.
func currentScreen(preferred string, screens []domain.Screen) string {
	for _, s := range screens {
		if s.ID == preferred && !s.Archived {
			return preferred
		}
	}
	for _, s := range screens {
		if !s.Archived {
			return s.ID
		}
	}
	if len(screens) > 0 {
		return screens[0].ID
	}
	return ""
}

// FilledQuestionnaires unions submitted questionnaires by id. A submission
// present on both sides merges its responses per question.
func FilledQuestionnaires(a, b []domain.FilledQuestionnaire) []domain.FilledQuestionnaire {
	return mergeByID(a, b,
		func(f *domain.FilledQuestionnaire) string { return f.ID },
		filledQuestionnaire,
		domain.FilledQuestionnaire.Clone,
	)
}

func filledQuestionnaire(x, y domain.FilledQuestionnaire) domain.FilledQuestionnaire {
	out := x.Clone()
	if y.LastModified > x.LastModified {
		out = y.Clone()
	}
	out.Responses = mergeByID(x.Responses, y.Responses,
		func(r *domain.QuestionResponse) string { return r.QuestionID },
		response,
		domain.QuestionResponse.Clone,
	)
	out.LastModified = max(x.LastModified, y.LastModified)
	return out
}

func response(x, y domain.QuestionResponse) domain.QuestionResponse {
	out := x
	if y.LastModified > x.LastModified {
		out = y
	}
	out.EditHistory = editHistory(x.EditHistory, y.EditHistory)
	return out
}

func editHistory(a, b []domain.ResponseEdit) []domain.ResponseEdit {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	byTimestamp := make(map[int64]domain.ResponseEdit, len(a)+len(b))
	for _, e := range slices.Concat(a, b) {
		byTimestamp[e.Timestamp] = e
	}
	out := make([]domain.ResponseEdit, 0, len(byTimestamp))
	for _, e := range byTimestamp {
		out = append(out, e)
	}
	slices.SortFunc(out, func(x, y domain.ResponseEdit) int { return cmp.Compare(x.Timestamp, y.Timestamp) })
	return out
}

type notificationKey struct {
	questionnaireID string
	scheduledFor    int64
}

// Notifications unions reminders by questionnaire and scheduled time.
// Dismissal is sticky.
func Notifications(a, b []domain.NotificationData) []domain.NotificationData {
	index := make(map[notificationKey]int, len(a)+len(b))
	out := make([]domain.NotificationData, 0, len(a)+len(b))
	for _, n := range slices.Concat(a, b) {
		key := notificationKey{n.QuestionnaireID, n.ScheduledFor}
		if i, ok := index[key]; ok {
			out[i].Dismissed = out[i].Dismissed || n.Dismissed
			continue
		}
		index[key] = len(out)
		out = append(out, n)
	}
	return out
}
