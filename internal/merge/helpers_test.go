package merge

import (
	"encoding/json"
	"testing"

	"github.com/lherron/wilds/internal/domain"
	"github.com/stretchr/testify/require"
)

func env(id string, version int, lastModified int64) domain.Envelope {
	return domain.Envelope{ID: id, EntityVersion: version, LastModified: lastModified, CreatedAt: 1}
}

func clicks(timestamps ...int64) []domain.ClickRecord {
	out := make([]domain.ClickRecord, 0, len(timestamps))
	for _, ts := range timestamps {
		out = append(out, domain.ClickRecord{Timestamp: ts, Date: "2024-01-01"})
	}
	return out
}

func button(id, text string, lastModified int64, ts ...int64) domain.Button {
	c := clicks(ts...)
	return domain.Button{Envelope: env(id, 1, lastModified), Text: text, Clicks: c, Count: domain.DeriveCount(c)}
}

func screen(id, name string, lastModified int64, buttons ...domain.Button) domain.Screen {
	if buttons == nil {
		buttons = []domain.Button{}
	}
	return domain.Screen{Envelope: env(id, 1, lastModified), Name: name, Buttons: buttons}
}

func change(entityType domain.EntityType, id string, ct domain.ChangeType, ts int64, oldValue, newValue string) domain.EntityChange {
	return domain.EntityChange{EntityID: id, EntityType: entityType, ChangeType: ct, Timestamp: ts, OldValue: oldValue, NewValue: newValue}
}

func buttonIDs(s domain.Screen) []string {
	ids := make([]string, 0, len(s.Buttons))
	for _, b := range s.Buttons {
		ids = append(ids, b.ID)
	}
	return ids
}

func clickTimes(b domain.Button) []int64 {
	out := make([]int64, 0, len(b.Clicks))
	for _, c := range b.Clicks {
		out = append(out, c.Timestamp)
	}
	return out
}

func findScreen(t *testing.T, screens []domain.Screen, id string) domain.Screen {
	t.Helper()
	for _, s := range screens {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("screen %s not found", id)
	return domain.Screen{}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// baseTracker is a fully populated tracker whose snapshot agrees with its log.
func baseTracker() *domain.Tracker {
	return &domain.Tracker{
		TrackerID:   "t1",
		TrackerName: "Daily",
		Screens: []domain.Screen{
			screen("s1", "Main", 10,
				button("b1", "Water", 10, 200, 100),
				button("b2", "Exercise", 10, 150),
			),
			screen("s2", "Evening", 20, button("b3", "Read", 20)),
		},
		CurrentScreenID: "s1",
		Questionnaires: []domain.Questionnaire{{
			Envelope:  env("q1", 1, 30),
			Name:      "Mood",
			Frequency: domain.Frequency{Type: domain.FrequencyDaily, Time: "20:00"},
			Questions: []domain.Question{
				{Envelope: env("qq1", 1, 30), Text: "Happy?", ScaleType: domain.ScaleBinary, Order: 0, SubscribedButtonIDs: []string{"b1"}},
				{Envelope: env("qq2", 1, 30), Text: "Energy", ScaleType: domain.ScaleFivePoint, Order: 1, SubscribedButtonIDs: []string{}},
			},
			IsActive: true,
		}},
		FilledQuestionnaires: []domain.FilledQuestionnaire{{
			ID: "f1", QuestionnaireID: "q1", QuestionnaireName: "Mood", FilledAt: 500, Date: "2024-01-01",
			Responses: []domain.QuestionResponse{{QuestionID: "qq1", Value: 1, LastModified: 500}},
		}},
		Notifications: []domain.NotificationData{{ID: "n1", QuestionnaireID: "q1", QuestionnaireName: "Mood", ScheduledFor: 1000, CreatedAt: 500}},
		SchemaVersion: 1,
		ChangeLog: []domain.EntityChange{
			change(domain.EntityScreen, "s2", domain.ChangeCreate, 20, "", "Evening"),
			change(domain.EntityQuestionnaire, "q1", domain.ChangeCreate, 30, "", "Mood"),
		},
		LastModified: 500,
	}
}
