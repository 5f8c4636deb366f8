package domain

import "slices"

// Clone returns a deep copy of the button
func (b Button) Clone() Button {
	b.Clicks = slices.Clone(b.Clicks)
	return b
}

// Clone returns a deep copy of the screen and its buttons
func (s Screen) Clone() Screen {
	if s.Buttons != nil {
		buttons := make([]Button, len(s.Buttons))
		for i, b := range s.Buttons {
			buttons[i] = b.Clone()
		}
		s.Buttons = buttons
	}
	return s
}

// Clone returns a deep copy of the question
func (q Question) Clone() Question {
	q.SubscribedButtonIDs = slices.Clone(q.SubscribedButtonIDs)
	if q.ScaleLabels != nil {
		q.ScaleLabels = q.ScaleLabels.Clone()
	}
	return q
}

// Clone returns a deep copy of the labels
func (l *ScaleLabels) Clone() *ScaleLabels {
	out := &ScaleLabels{}
	if l.Binary != nil {
		v := *l.Binary
		out.Binary = &v
	}
	if l.FivePoint != nil {
		v := *l.FivePoint
		out.FivePoint = &v
	}
	if l.SevenPoint != nil {
		v := *l.SevenPoint
		out.SevenPoint = &v
	}
	return out
}

// Clone returns a deep copy of the questionnaire and its questions
func (q Questionnaire) Clone() Questionnaire {
	q.Frequency.Weekdays = slices.Clone(q.Frequency.Weekdays)
	if q.Questions != nil {
		questions := make([]Question, len(q.Questions))
		for i, qq := range q.Questions {
			questions[i] = qq.Clone()
		}
		q.Questions = questions
	}
	return q
}

// Clone returns a deep copy of the response
func (r QuestionResponse) Clone() QuestionResponse {
	r.EditHistory = slices.Clone(r.EditHistory)
	return r
}

// Clone returns a deep copy of the filled questionnaire
func (f FilledQuestionnaire) Clone() FilledQuestionnaire {
	if f.Responses != nil {
		responses := make([]QuestionResponse, len(f.Responses))
		for i, r := range f.Responses {
			responses[i] = r.Clone()
		}
		f.Responses = responses
	}
	return f
}

// Clone returns a deep copy of the change record
func (c EntityChange) Clone() EntityChange {
	if c.PreviousValue != nil {
		v := *c.PreviousValue
		c.PreviousValue = &v
	}
	if c.NewResponseValue != nil {
		v := *c.NewResponseValue
		c.NewResponseValue = &v
	}
	return c
}

// Clone returns a deep copy of the tracker
func (t *Tracker) Clone() *Tracker {
	if t == nil {
		return nil
	}
	out := *t
	out.Screens = cloneEach(t.Screens, Screen.Clone)
	out.Questionnaires = cloneEach(t.Questionnaires, Questionnaire.Clone)
	out.FilledQuestionnaires = cloneEach(t.FilledQuestionnaires, FilledQuestionnaire.Clone)
	out.Notifications = slices.Clone(t.Notifications)
	out.ChangeLog = cloneEach(t.ChangeLog, EntityChange.Clone)
	return &out
}

func cloneEach[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}
