package tracker

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/id"
)

// QuestionnaireUpdate lists the questionnaire fields to change; nil fields
// are left alone.
type QuestionnaireUpdate struct {
	Name        *string
	Description *string
	Frequency   *domain.Frequency
	IsActive    *bool
}

// QuestionUpdate lists the question fields to change; nil fields are left alone.
type QuestionUpdate struct {
	Text                *string
	ScaleType           *domain.ScaleType
	SubscribedButtonIDs []string
	ScaleLabels         *domain.ScaleLabels
}

func (e *Editor) questionnaire(t *domain.Tracker, questionnaireID string) (*domain.Questionnaire, error) {
	q := t.Questionnaire(questionnaireID)
	if q == nil {
		return nil, notFound(domain.EntityQuestionnaire, questionnaireID)
	}
	return q, nil
}

func (e *Editor) question(t *domain.Tracker, questionnaireID, questionID string) (*domain.Questionnaire, *domain.Question, error) {
	q, err := e.questionnaire(t, questionnaireID)
	if err != nil {
		return nil, nil, err
	}
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			return q, &q.Questions[i], nil
		}
	}
	return nil, nil, notFound(domain.EntityQuestion, questionID)
}

// CreateQuestionnaire adds an inactive daily questionnaire
func (e *Editor) CreateQuestionnaire(t *domain.Tracker, name, description string) (*domain.Questionnaire, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	now := e.now()
	t.Questionnaires = append(t.Questionnaires, domain.Questionnaire{
		Envelope:    domain.Envelope{ID: e.newID(id.KindQuestionnaire), EntityVersion: 1, CreatedAt: now, LastModified: now},
		Name:        name,
		Description: strings.TrimSpace(description),
		Frequency:   domain.Frequency{Type: domain.FrequencyDaily, Time: e.notifyTime()},
		Questions:   []domain.Question{},
	})
	q := &t.Questionnaires[len(t.Questionnaires)-1]
	e.record(t, domain.EntityChange{
		EntityID: q.ID, EntityType: domain.EntityQuestionnaire, ChangeType: domain.ChangeCreate, Timestamp: now, NewValue: name,
	})
	return q, nil
}

// UpdateQuestionnaire changes questionnaire settings
func (e *Editor) UpdateQuestionnaire(t *domain.Tracker, questionnaireID string, u QuestionnaireUpdate) error {
	q, err := e.questionnaire(t, questionnaireID)
	if err != nil {
		return err
	}
	if u.Name != nil {
		name, err := NormalizeName(*u.Name)
		if err != nil {
			return err
		}
		q.Name = name
	}
	if u.Description != nil {
		q.Description = strings.TrimSpace(*u.Description)
	}
	if u.Frequency != nil {
		f := *u.Frequency
		f.Weekdays = slices.Clone(f.Weekdays)
		q.Frequency = f
	}
	if u.IsActive != nil {
		q.IsActive = *u.IsActive
	}

	now := e.now()
	q.Touch(now)
	e.record(t, domain.EntityChange{
		EntityID: questionnaireID, EntityType: domain.EntityQuestionnaire, ChangeType: domain.ChangeUpdate, Timestamp: now,
	})
	return nil
}

// ArchiveQuestionnaire archives and deactivates a questionnaire
func (e *Editor) ArchiveQuestionnaire(t *domain.Tracker, questionnaireID string) error {
	q, err := e.questionnaire(t, questionnaireID)
	if err != nil {
		return err
	}
	now := e.now()
	q.Archived = true
	q.IsActive = false
	q.Touch(now)
	e.record(t, domain.EntityChange{
		EntityID: questionnaireID, EntityType: domain.EntityQuestionnaire, ChangeType: domain.ChangeArchive, Timestamp: now,
	})
	return nil
}

// AddQuestion appends a question at the end of a questionnaire
func (e *Editor) AddQuestion(t *domain.Tracker, questionnaireID, text string, scale domain.ScaleType, subscribed []string) (*domain.Question, error) {
	text, err := NormalizeName(text)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateScaleValue(scale, 0); err != nil {
		return nil, err
	}
	q, err := e.questionnaire(t, questionnaireID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	if subscribed == nil {
		subscribed = []string{}
	}
	q.Questions = append(q.Questions, domain.Question{
		Envelope:            domain.Envelope{ID: e.newID(id.KindQuestion), EntityVersion: 1, CreatedAt: now, LastModified: now},
		Text:                text,
		ScaleType:           scale,
		Order:               len(q.Questions),
		SubscribedButtonIDs: slices.Clone(subscribed),
	})
	q.Touch(now)
	question := &q.Questions[len(q.Questions)-1]
	e.record(t, domain.EntityChange{
		EntityID: question.ID, EntityType: domain.EntityQuestion, ChangeType: domain.ChangeCreate, Timestamp: now, NewValue: text,
	})
	return question, nil
}

// UpdateQuestion changes a question
func (e *Editor) UpdateQuestion(t *domain.Tracker, questionnaireID, questionID string, u QuestionUpdate) error {
	q, question, err := e.question(t, questionnaireID, questionID)
	if err != nil {
		return err
	}
	if u.Text != nil {
		text, err := NormalizeName(*u.Text)
		if err != nil {
			return err
		}
		question.Text = text
	}
	if u.ScaleType != nil {
		if err := domain.ValidateScaleValue(*u.ScaleType, 0); err != nil {
			return err
		}
		question.ScaleType = *u.ScaleType
	}
	if u.SubscribedButtonIDs != nil {
		question.SubscribedButtonIDs = slices.Clone(u.SubscribedButtonIDs)
	}
	if u.ScaleLabels != nil {
		question.ScaleLabels = u.ScaleLabels.Clone()
	}

	now := e.now()
	question.Touch(now)
	q.Touch(now)
	e.record(t, domain.EntityChange{
		EntityID: questionID, EntityType: domain.EntityQuestion, ChangeType: domain.ChangeUpdate, Timestamp: now,
	})
	return nil
}

// ReorderQuestions moves an active question and renumbers the active ones.
// Every question whose order changes is touched so the new order wins a merge.
func (e *Editor) ReorderQuestions(t *domain.Tracker, questionnaireID string, from, to int) error {
	q, err := e.questionnaire(t, questionnaireID)
	if err != nil {
		return err
	}
	visible, hidden := splitArchived(q.Questions, func(x *domain.Question) bool { return x.Archived })
	if err := moveIndex(visible, from, to); err != nil {
		return err
	}
	now := e.now()
	for i := range visible {
		if visible[i].Order != i {
			visible[i].Order = i
			visible[i].Touch(now)
		}
	}
	q.Questions = append(visible, hidden...)
	q.Touch(now)
	e.record(t, domain.EntityChange{
		EntityID: visible[to].ID, EntityType: domain.EntityQuestion, ChangeType: domain.ChangeReorder, Timestamp: now,
	})
	return nil
}

// ArchiveQuestion hides a question from future submissions
func (e *Editor) ArchiveQuestion(t *domain.Tracker, questionnaireID, questionID string) error {
	q, question, err := e.question(t, questionnaireID, questionID)
	if err != nil {
		return err
	}
	now := e.now()
	question.Archived = true
	question.Touch(now)
	q.Touch(now)
	e.record(t, domain.EntityChange{
		EntityID: questionID, EntityType: domain.EntityQuestion, ChangeType: domain.ChangeArchive, Timestamp: now,
	})
	return nil
}

// ActiveQuestions returns the non-archived questions in display order
func ActiveQuestions(q *domain.Questionnaire) []domain.Question {
	var out []domain.Question
	for _, question := range q.Questions {
		if !question.Archived {
			out = append(out, question)
		}
	}
	slices.SortStableFunc(out, func(x, y domain.Question) int { return cmp.Compare(x.Order, y.Order) })
	return out
}

// SubmitQuestionnaire stores a filled questionnaire and clears its pending
// notifications. Each response must name a question of the questionnaire
// and fit its scale.
func (e *Editor) SubmitQuestionnaire(t *domain.Tracker, questionnaireID string, responses []domain.QuestionResponse, notes string) (*domain.FilledQuestionnaire, error) {
	q, err := e.questionnaire(t, questionnaireID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	out := make([]domain.QuestionResponse, 0, len(responses))
	for _, r := range responses {
		_, question, err := e.question(t, questionnaireID, r.QuestionID)
		if err != nil {
			return nil, err
		}
		if err := domain.ValidateScaleValue(question.ScaleType, r.Value); err != nil {
			return nil, fmt.Errorf("question %s: %w", r.QuestionID, err)
		}
		out = append(out, domain.QuestionResponse{QuestionID: r.QuestionID, Value: r.Value, LastModified: now})
	}

	t.FilledQuestionnaires = append(t.FilledQuestionnaires, domain.FilledQuestionnaire{
		ID:                e.newID(id.KindFilled),
		QuestionnaireID:   questionnaireID,
		QuestionnaireName: q.Name,
		Responses:         out,
		FilledAt:          now,
		Date:              Date(now),
		Notes:             strings.TrimSpace(notes),
		LastModified:      now,
	})
	t.Notifications = slices.DeleteFunc(t.Notifications, func(n domain.NotificationData) bool {
		return n.QuestionnaireID == questionnaireID && !n.Dismissed
	})
	e.stamp(t, now)
	return &t.FilledQuestionnaires[len(t.FilledQuestionnaires)-1], nil
}

// EditResponse changes one answer of a submitted questionnaire, keeping the
// previous value in its edit history.
func (e *Editor) EditResponse(t *domain.Tracker, filledID, questionID string, value int) error {
	var filled *domain.FilledQuestionnaire
	for i := range t.FilledQuestionnaires {
		if t.FilledQuestionnaires[i].ID == filledID {
			filled = &t.FilledQuestionnaires[i]
			break
		}
	}
	if filled == nil {
		return notFound(domain.EntityResponse, filledID)
	}

	var resp *domain.QuestionResponse
	for i := range filled.Responses {
		if filled.Responses[i].QuestionID == questionID {
			resp = &filled.Responses[i]
			break
		}
	}
	if resp == nil {
		return notFound(domain.EntityQuestion, questionID)
	}
	if _, question, err := e.question(t, filled.QuestionnaireID, questionID); err == nil {
		if err := domain.ValidateScaleValue(question.ScaleType, value); err != nil {
			return err
		}
	}

	now := e.now()
	prev := resp.Value
	resp.EditHistory = append(resp.EditHistory, domain.ResponseEdit{Timestamp: now, PreviousValue: prev, NewValue: value})
	resp.Value = value
	resp.LastModified = now
	filled.LastModified = max(filled.LastModified, now)

	newValue := value
	e.record(t, domain.EntityChange{
		EntityID:                filledID,
		EntityType:              domain.EntityResponse,
		ChangeType:              domain.ChangeEdit,
		Timestamp:               now,
		QuestionnaireResponseID: filledID,
		QuestionID:              questionID,
		PreviousValue:           &prev,
		NewResponseValue:        &newValue,
	})
	return nil
}
