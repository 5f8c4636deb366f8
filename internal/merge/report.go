package merge

import (
	"fmt"
	"strings"

	"github.com/lherron/wilds/internal/domain"
)

// Report summarises what a merge took from each side
type Report struct {
	ScreensAdded        int        `json:"screens_added"`
	ButtonsAdded        int        `json:"buttons_added"`
	QuestionnairesAdded int        `json:"questionnaires_added"`
	FilledAdded         int        `json:"filled_added"`
	ClicksAdded         int        `json:"clicks_added"`
	ChangesAdded        int        `json:"changes_added"`
	Removed             int        `json:"removed"`
	Conflicts           []Conflict `json:"conflicts,omitempty"`
}

// Conflict is a label both sides hold with different values
type Conflict struct {
	EntityType domain.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Field      string            `json:"field"`
	Local      string            `json:"local"`
	Remote     string            `json:"remote"`
	Winner     string            `json:"winner"`
}

// HasConflicts reports whether any label conflict was resolved
func (r *Report) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// TrackersWithReport merges like Trackers and describes the outcome relative
// to a. Added counts are entities in the result that a did not have; Removed
// counts screens and buttons of a that the replay dropped.
func TrackersWithReport(a, b *domain.Tracker) (*domain.Tracker, *Report) {
	a, b = orEmpty(a), orEmpty(b)
	merged := Trackers(a, b)
	r := &Report{}

	for _, s := range a.Screens {
		if merged.Screen(s.ID) == nil {
			r.Removed++
		}
		for _, btn := range s.Buttons {
			if _, kept := merged.FindButton(btn.ID); kept == nil {
				r.Removed++
			}
		}
	}

	for _, s := range merged.Screens {
		if a.Screen(s.ID) == nil {
			r.ScreensAdded++
		}
		for _, btn := range s.Buttons {
			_, local := a.FindButton(btn.ID)
			if local == nil {
				r.ButtonsAdded++
				r.ClicksAdded += len(btn.Clicks)
				continue
			}
			r.ClicksAdded += max(len(btn.Clicks)-len(Clicks(local.Clicks, nil)), 0)
		}
	}

	for _, q := range merged.Questionnaires {
		if a.Questionnaire(q.ID) == nil {
			r.QuestionnairesAdded++
		}
	}

	localFilled := make(map[string]bool, len(a.FilledQuestionnaires))
	for _, f := range a.FilledQuestionnaires {
		localFilled[f.ID] = true
	}
	for _, f := range merged.FilledQuestionnaires {
		if !localFilled[f.ID] {
			r.FilledAdded++
		}
	}

	r.ChangesAdded = len(merged.ChangeLog) - len(ChangeLogs(a.ChangeLog, nil))
	r.Conflicts = labelConflicts(a, b, merged)
	return merged, r
}

// labelConflicts lists entities whose label differs between a and b, with
// the label the merge settled on.
func labelConflicts(a, b, merged *domain.Tracker) []Conflict {
	var out []Conflict
	add := func(kind domain.EntityType, id, field, local, remote, winner string) {
		if local != remote {
			out = append(out, Conflict{EntityType: kind, EntityID: id, Field: field, Local: local, Remote: remote, Winner: winner})
		}
	}

	for _, ls := range a.Screens {
		rs := b.Screen(ls.ID)
		if rs == nil {
			continue
		}
		if ms := merged.Screen(ls.ID); ms != nil {
			add(domain.EntityScreen, ls.ID, "name", ls.Name, rs.Name, ms.Name)
		}
	}
	for _, ls := range a.Screens {
		for _, lb := range ls.Buttons {
			_, rb := b.FindButton(lb.ID)
			if rb == nil {
				continue
			}
			if _, mb := merged.FindButton(lb.ID); mb != nil {
				add(domain.EntityButton, lb.ID, "text", lb.Text, rb.Text, mb.Text)
			}
		}
	}
	for _, lq := range a.Questionnaires {
		rq := b.Questionnaire(lq.ID)
		mq := merged.Questionnaire(lq.ID)
		if rq == nil || mq == nil {
			continue
		}
		add(domain.EntityQuestionnaire, lq.ID, "name", lq.Name, rq.Name, mq.Name)
	}
	return out
}

// FormatConflicts returns a human-readable description of conflicts
func (r *Report) FormatConflicts() string {
	if !r.HasConflicts() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Merge conflicts resolved:\n\n")
	for i, c := range r.Conflicts {
		sb.WriteString(fmt.Sprintf("%d. %s %s %s: local=%q, remote=%q, kept=%q\n",
			i+1, c.EntityType, c.EntityID, c.Field, c.Local, c.Remote, c.Winner))
	}
	return sb.String()
}
