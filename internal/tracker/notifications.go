package tracker

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/id"
)

const defaultCustomInterval = 24 * time.Hour

// parseClock reads an "HH:MM" time, falling back to the default reminder time.
func parseClock(s string) (hour, minute int) {
	if s == "" {
		s = DefaultNotifyTime
	}
	h, m, ok := strings.Cut(s, ":")
	hour, errH := strconv.Atoi(h)
	minute, errM := strconv.Atoi(m)
	if !ok || errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 20, 0
	}
	return hour, minute
}

// NextOccurrence returns when a questionnaire with frequency f is next due
// after now. Daily slots roll to tomorrow once passed; weekly slots use the
// first configured weekday and are always at least a day ahead; custom
// schedules add the interval in hours.
func NextOccurrence(f domain.Frequency, now time.Time) (time.Time, error) {
	hour, minute := parseClock(f.Time)
	switch f.Type {
	case domain.FrequencyDaily:
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next, nil
	case domain.FrequencyWeekly:
		target := 0
		if len(f.Weekdays) > 0 {
			target = f.Weekdays[0]
		}
		days := (target - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		day := now.AddDate(0, 0, days)
		return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location()), nil
	case domain.FrequencyCustom:
		interval := defaultCustomInterval
		if f.Interval > 0 {
			interval = time.Duration(f.Interval) * time.Hour
		}
		return now.Add(interval), nil
	}
	return time.Time{}, fmt.Errorf("unknown frequency type %q", f.Type)
}

// ScheduleNotification replaces the reminders of an active questionnaire with
// one for its next occurrence.
func (e *Editor) ScheduleNotification(t *domain.Tracker, questionnaireID string) (*domain.NotificationData, error) {
	q, err := e.questionnaire(t, questionnaireID)
	if err != nil {
		return nil, err
	}
	if !q.IsActive {
		return nil, fmt.Errorf("%s: %w", q.Name, ErrInactive)
	}

	now := e.clock()
	next, err := NextOccurrence(q.Frequency, now)
	if err != nil {
		return nil, err
	}

	kept := t.Notifications[:0]
	for _, n := range t.Notifications {
		if n.QuestionnaireID != questionnaireID {
			kept = append(kept, n)
		}
	}
	t.Notifications = append(kept, domain.NotificationData{
		ID:                e.newID(id.KindNotification),
		QuestionnaireID:   questionnaireID,
		QuestionnaireName: q.Name,
		ScheduledFor:      next.UnixMilli(),
		CreatedAt:         now.UnixMilli(),
	})
	e.stamp(t, now.UnixMilli())
	return &t.Notifications[len(t.Notifications)-1], nil
}

// DismissNotification marks a reminder as dismissed
func (e *Editor) DismissNotification(t *domain.Tracker, notificationID string) error {
	for i := range t.Notifications {
		if t.Notifications[i].ID == notificationID {
			t.Notifications[i].Dismissed = true
			e.stamp(t, e.now())
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
}

// PendingNotifications returns reminders that are due and not dismissed
func PendingNotifications(t *domain.Tracker, now time.Time) []domain.NotificationData {
	var out []domain.NotificationData
	for _, n := range t.Notifications {
		if !n.Dismissed && n.ScheduledFor <= now.UnixMilli() {
			out = append(out, n)
		}
	}
	return out
}
