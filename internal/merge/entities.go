package merge

import (
	"github.com/lherron/wilds/internal/domain"
)

// mergeByID merges two collections keyed by id. Entities of a keep their
// order, entities only in b are appended, and entities present in both are
// combined with pair.
func mergeByID[T any](a, b []T, id func(*T) string, pair func(x, y T) T, clone func(T) T) []T {
	index := make(map[string]int, len(a)+len(b))
	out := make([]T, 0, len(a)+len(b))
	for _, list := range [][]T{a, b} {
		for i := range list {
			key := id(&list[i])
			if pos, ok := index[key]; ok {
				out[pos] = pair(out[pos], list[i])
				continue
			}
			index[key] = len(out)
			out = append(out, clone(list[i]))
		}
	}
	return out
}

// newer reports whether y should be the metadata base over x: strictly greater
// lastModified, then strictly greater entityVersion. Full ties keep x.
func newer(x, y domain.Envelope) bool {
	if y.LastModified != x.LastModified {
		return y.LastModified > x.LastModified
	}
	return y.Version() > x.Version()
}

// joinEnvelope applies the max rules for version and modification time.
func joinEnvelope(out *domain.Envelope, x, y domain.Envelope) {
	out.EntityVersion = max(x.Version(), y.Version())
	out.LastModified = max(x.LastModified, y.LastModified)
}

func buttonID(b *domain.Button) string               { return b.ID }
func screenID(s *domain.Screen) string               { return s.ID }
func questionID(q *domain.Question) string           { return q.ID }
func questionnaireID(q *domain.Questionnaire) string { return q.ID }

// Button merges two versions of the same button. Clicks are unioned and the
// count re-derived; the remaining fields come from the newer version.
func Button(x, y domain.Button) domain.Button {
	base := x
	if newer(x.Envelope, y.Envelope) {
		base = y
	}
	out := base.Clone()
	out.Clicks = Clicks(x.Clicks, y.Clicks)
	out.Count = domain.DeriveCount(out.Clicks)
	joinEnvelope(&out.Envelope, x.Envelope, y.Envelope)
	return out
}

// Buttons merges two button collections by id
func Buttons(a, b []domain.Button) []domain.Button {
	return mergeByID(a, b, buttonID, Button, domain.Button.Clone)
}

// Screen merges two versions of the same screen, buttons first.
func Screen(x, y domain.Screen) domain.Screen {
	buttons := Buttons(x.Buttons, y.Buttons)
	base := x
	if newer(x.Envelope, y.Envelope) {
		base = y
	}
	out := base
	out.Buttons = buttons
	joinEnvelope(&out.Envelope, x.Envelope, y.Envelope)
	return out
}

// Screens merges two screen collections by id
func Screens(a, b []domain.Screen) []domain.Screen {
	return mergeByID(a, b, screenID, Screen, domain.Screen.Clone)
}

// Question merges two versions of the same question
func Question(x, y domain.Question) domain.Question {
	base := x
	if newer(x.Envelope, y.Envelope) {
		base = y
	}
	out := base.Clone()
	joinEnvelope(&out.Envelope, x.Envelope, y.Envelope)
	return out
}

// Questions merges two question collections by id
func Questions(a, b []domain.Question) []domain.Question {
	return mergeByID(a, b, questionID, Question, domain.Question.Clone)
}

// Questionnaire merges two versions of the same questionnaire, questions first.
func Questionnaire(x, y domain.Questionnaire) domain.Questionnaire {
	questions := Questions(x.Questions, y.Questions)
	base := x
	if newer(x.Envelope, y.Envelope) {
		base = y
	}
	out := base.Clone()
	out.Questions = questions
	joinEnvelope(&out.Envelope, x.Envelope, y.Envelope)
	return out
}

// Questionnaires merges two questionnaire collections by id
func Questionnaires(a, b []domain.Questionnaire) []domain.Questionnaire {
	return mergeByID(a, b, questionnaireID, Questionnaire, domain.Questionnaire.Clone)
}
