package selectors

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/store"
	"github.com/lherron/wilds/internal/tracker"
)

var (
	// ErrNotFound is returned when a selector matches nothing
	ErrNotFound = errors.New("not found")
	// ErrAmbiguous is returned when a selector matches more than one entity
	ErrAmbiguous = errors.New("ambiguous selector")
)

// Type represents how a selector token is matched
type Type string

const (
	TypeID   Type = "id"
	TypeName Type = "name"
	TypeAuto Type = "auto" // id, then unique id prefix, then name
)

// Selector represents a parsed typed selector
type Selector struct {
	Type  Type
	Token string // The part after the prefix (e.g., "Water" from "name:Water")
}

// Parse parses a selector string and returns the type and token
// Supports: id:<token>, name:<token>, or plain <token> (auto-detect)
func Parse(selector string) Selector {
	if token, ok := strings.CutPrefix(selector, "id:"); ok {
		return Selector{Type: TypeID, Token: token}
	}
	if token, ok := strings.CutPrefix(selector, "name:"); ok {
		return Selector{Type: TypeName, Token: token}
	}
	return Selector{Type: TypeAuto, Token: selector}
}

// Lister is the part of the repository trackers are resolved against
type Lister interface {
	List(ctx context.Context, opts store.ListOptions) ([]store.Summary, error)
}

// ResolveTracker resolves a tracker selector among active and archived
// trackers. Plain selectors match an exact id, then a unique id prefix,
// then a name.
func ResolveTracker(ctx context.Context, repo Lister, selector string) (store.Summary, error) {
	parsed := Parse(selector)
	if parsed.Token == "" {
		return store.Summary{}, fmt.Errorf("empty tracker selector")
	}

	all, err := repo.List(ctx, store.ListOptions{All: true})
	if err != nil {
		return store.Summary{}, err
	}

	if parsed.Type != TypeName {
		for _, s := range all {
			if s.TrackerID == parsed.Token {
				return s, nil
			}
		}
	}

	if parsed.Type == TypeAuto {
		matches := filter(all, func(s store.Summary) bool { return strings.HasPrefix(s.TrackerID, parsed.Token) })
		if s, err := one(matches, "tracker", parsed.Token); !errors.Is(err, ErrNotFound) {
			return s, err
		}
	}

	if parsed.Type != TypeID {
		name := normalize(parsed.Token)
		matches := filter(all, func(s store.Summary) bool { return strings.EqualFold(normalize(s.Name), name) })
		return one(matches, "tracker", parsed.Token)
	}

	return store.Summary{}, fmt.Errorf("tracker %w: %s", ErrNotFound, parsed.Token)
}

// Screen resolves a screen of t by id or case-insensitive name
func Screen(t *domain.Tracker, selector string) (*domain.Screen, error) {
	parsed := Parse(selector)

	var candidates []*domain.Screen
	for i := range t.Screens {
		candidates = append(candidates, &t.Screens[i])
	}

	return resolveEntity(candidates, parsed, "screen",
		func(s *domain.Screen) string { return s.ID },
		func(s *domain.Screen) string { return s.Name })
}

// Button resolves a button of t by id or case-insensitive text. A name
// matching buttons on several screens is ambiguous; qualify it with the
// screen as "<screen>/<button>".
func Button(t *domain.Tracker, selector string) (*domain.Screen, *domain.Button, error) {
	owner, btn, err := button(t, t.Screens, selector)
	if err == nil {
		return owner, btn, nil
	}

	scope, rest, ok := strings.Cut(selector, "/")
	if !ok || rest == "" {
		return nil, nil, err
	}
	s, serr := Screen(t, scope)
	if serr != nil {
		return nil, nil, err
	}
	return button(t, []domain.Screen{*s}, rest)
}

func button(t *domain.Tracker, screens []domain.Screen, selector string) (*domain.Screen, *domain.Button, error) {
	var candidates []*domain.Button
	for i := range screens {
		for j := range screens[i].Buttons {
			candidates = append(candidates, &screens[i].Buttons[j])
		}
	}

	b, err := resolveEntity(candidates, Parse(selector), "button",
		func(b *domain.Button) string { return b.ID },
		func(b *domain.Button) string { return b.Text })
	if err != nil {
		return nil, nil, err
	}

	// Re-resolve against t so callers get pointers into the tracker itself.
	owner, btn := t.FindButton(b.ID)
	return owner, btn, nil
}

// Questionnaire resolves a questionnaire of t by id or case-insensitive name
func Questionnaire(t *domain.Tracker, selector string) (*domain.Questionnaire, error) {
	var candidates []*domain.Questionnaire
	for i := range t.Questionnaires {
		candidates = append(candidates, &t.Questionnaires[i])
	}
	return resolveEntity(candidates, Parse(selector), "questionnaire",
		func(q *domain.Questionnaire) string { return q.ID },
		func(q *domain.Questionnaire) string { return q.Name })
}

// Question resolves a question of q by id, case-insensitive text, or its
// 1-based position among the active questions written as "#2".
func Question(q *domain.Questionnaire, selector string) (*domain.Question, error) {
	if pos, ok := strings.CutPrefix(selector, "#"); ok {
		n, err := strconv.Atoi(pos)
		if err != nil {
			return nil, fmt.Errorf("invalid question position %q", selector)
		}
		var active []*domain.Question
		for i := range q.Questions {
			if !q.Questions[i].Archived {
				active = append(active, &q.Questions[i])
			}
		}
		slices.SortStableFunc(active, func(x, y *domain.Question) int { return cmp.Compare(x.Order, y.Order) })
		if n < 1 || n > len(active) {
			return nil, fmt.Errorf("question %w: %s", ErrNotFound, selector)
		}
		return active[n-1], nil
	}

	var candidates []*domain.Question
	for i := range q.Questions {
		candidates = append(candidates, &q.Questions[i])
	}
	return resolveEntity(candidates, Parse(selector), "question",
		func(x *domain.Question) string { return x.ID },
		func(x *domain.Question) string { return x.Text })
}

// Filled resolves a submitted questionnaire by id or unique id prefix.
// "last" names the most recent submission.
func Filled(t *domain.Tracker, selector string) (*domain.FilledQuestionnaire, error) {
	token := Parse(selector).Token
	if token == "" {
		return nil, fmt.Errorf("empty submission selector")
	}
	if token == "last" {
		var last *domain.FilledQuestionnaire
		for i := range t.FilledQuestionnaires {
			if f := &t.FilledQuestionnaires[i]; last == nil || f.FilledAt >= last.FilledAt {
				last = f
			}
		}
		if last == nil {
			return nil, fmt.Errorf("submission %w: no questionnaire has been filled", ErrNotFound)
		}
		return last, nil
	}

	var matches []*domain.FilledQuestionnaire
	for i := range t.FilledQuestionnaires {
		f := &t.FilledQuestionnaires[i]
		if f.ID == token {
			return f, nil
		}
		if strings.HasPrefix(f.ID, token) {
			matches = append(matches, f)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, fmt.Errorf("submission %w: %s", ErrNotFound, token)
	}
	return nil, fmt.Errorf("%w: %d submissions match %q", ErrAmbiguous, len(matches), token)
}

func resolveEntity[T any](candidates []*T, parsed Selector, kind string, id, name func(*T) string) (*T, error) {
	if parsed.Token == "" {
		return nil, fmt.Errorf("empty %s selector", kind)
	}

	if parsed.Type != TypeName {
		for _, c := range candidates {
			if id(c) == parsed.Token {
				return c, nil
			}
		}
	}

	if parsed.Type != TypeID {
		want := normalize(parsed.Token)
		var matches []*T
		for _, c := range candidates {
			if strings.EqualFold(normalize(name(c)), want) {
				matches = append(matches, c)
			}
		}
		switch len(matches) {
		case 1:
			return matches[0], nil
		case 0:
		default:
			return nil, fmt.Errorf("%w: %d %ss named %q", ErrAmbiguous, len(matches), kind, parsed.Token)
		}
	}

	return nil, fmt.Errorf("%s %w: %s", kind, ErrNotFound, parsed.Token)
}

// normalize folds names the way the editor stores them; blank names match nothing
func normalize(s string) string {
	n, _ := tracker.NormalizeName(s)
	return n
}

func filter(all []store.Summary, keep func(store.Summary) bool) []store.Summary {
	var out []store.Summary
	for _, s := range all {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func one(matches []store.Summary, kind, token string) (store.Summary, error) {
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return store.Summary{}, fmt.Errorf("%s %w: %s", kind, ErrNotFound, token)
	}
	return store.Summary{}, fmt.Errorf("%w: %d %ss match %q", ErrAmbiguous, len(matches), kind, token)
}
