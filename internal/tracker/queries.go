package tracker

import (
	"slices"

	"github.com/lherron/wilds/internal/domain"
)

const (
	maxWindow = 4 * 60 * 60 * 1000
	minWindow = 30 * 60 * 1000
)

// ButtonClicks are the clicks of one button inside a time range
type ButtonClicks struct {
	ButtonID   string               `json:"buttonId"`
	ButtonName string               `json:"buttonName"`
	Clicks     []domain.ClickRecord `json:"clicks"`
}

// ClicksInRange returns, for each listed button, its clicks with
// start <= timestamp <= end.
func ClicksInRange(t *domain.Tracker, buttonIDs []string, start, end int64) []ButtonClicks {
	var out []ButtonClicks
	for _, s := range t.Screens {
		for _, b := range s.Buttons {
			if !slices.Contains(buttonIDs, b.ID) {
				continue
			}
			clicks := []domain.ClickRecord{}
			for _, c := range b.Clicks {
				if c.Timestamp >= start && c.Timestamp <= end {
					clicks = append(clicks, c)
				}
			}
			out = append(out, ButtonClicks{ButtonID: b.ID, ButtonName: b.Text, Clicks: clicks})
		}
	}
	return out
}

// TimeWindow returns the tracker window shown around a filled questionnaire:
// half the gap to the neighbouring fillings of the same questionnaire on each
// side, at most four hours and at least thirty minutes.
func TimeWindow(filled domain.FilledQuestionnaire, all []domain.FilledQuestionnaire) (start, end int64) {
	before, after := int64(maxWindow), int64(maxWindow)
	for _, f := range all {
		if f.QuestionnaireID != filled.QuestionnaireID || f.ID == filled.ID {
			continue
		}
		switch gap := f.FilledAt - filled.FilledAt; {
		case gap < 0:
			before = min(before, -gap/2)
		case gap > 0:
			after = min(after, gap/2)
		}
	}
	before = max(before, minWindow)
	after = max(after, minWindow)
	return filled.FilledAt - before, filled.FilledAt + after
}
