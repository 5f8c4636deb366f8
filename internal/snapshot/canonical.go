package snapshot

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/merge"
)

// Canonicalize returns a sorted deep copy of t. Screens, buttons,
// questionnaires, questions, filled questionnaires and notifications are
// ordered by id, responses by question id, clicks newest first and the
// change log oldest first. t is not modified.
func Canonicalize(t *domain.Tracker) *domain.Tracker {
	c := t.Clone()
	if c == nil {
		return nil
	}

	slices.SortFunc(c.Screens, func(x, y domain.Screen) int { return cmp.Compare(x.ID, y.ID) })
	for i := range c.Screens {
		buttons := c.Screens[i].Buttons
		slices.SortFunc(buttons, func(x, y domain.Button) int { return cmp.Compare(x.ID, y.ID) })
		for j := range buttons {
			slices.SortFunc(buttons[j].Clicks, compareClicks)
		}
	}

	slices.SortFunc(c.Questionnaires, func(x, y domain.Questionnaire) int { return cmp.Compare(x.ID, y.ID) })
	for i := range c.Questionnaires {
		slices.SortFunc(c.Questionnaires[i].Questions, func(x, y domain.Question) int { return cmp.Compare(x.ID, y.ID) })
	}

	slices.SortFunc(c.FilledQuestionnaires, func(x, y domain.FilledQuestionnaire) int { return cmp.Compare(x.ID, y.ID) })
	for i := range c.FilledQuestionnaires {
		slices.SortFunc(c.FilledQuestionnaires[i].Responses, func(x, y domain.QuestionResponse) int {
			return cmp.Compare(x.QuestionID, y.QuestionID)
		})
	}

	slices.SortFunc(c.Notifications, func(x, y domain.NotificationData) int { return cmp.Compare(x.ID, y.ID) })
	slices.SortFunc(c.ChangeLog, merge.CompareChanges)

	return c
}

// compareClicks orders clicks newest first; an increment sorts before a
// decrement at the same instant.
func compareClicks(x, y domain.ClickRecord) int {
	if c := cmp.Compare(y.Timestamp, x.Timestamp); c != 0 {
		return c
	}
	switch {
	case x.IsDecrement == y.IsDecrement:
		return 0
	case y.IsDecrement:
		return -1
	}
	return 1
}

// CanonicalJSON produces a deterministic JSON encoding following JCS-like rules:
// - Collections sorted as by Canonicalize
// - Object keys sorted lexicographically
// - No insignificant whitespace, no HTML escaping
func CanonicalJSON(t *domain.Tracker) ([]byte, error) {
	raw, err := json.Marshal(Canonicalize(t))
	if err != nil {
		return nil, fmt.Errorf("failed to encode tracker: %w", err)
	}

	// Re-encode through generic values; encoding/json writes map keys sorted.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("failed to decode tracker: %w", err)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(generic); err != nil {
		return nil, fmt.Errorf("failed to encode tracker: %w", err)
	}

	// Remove trailing newline added by Encode
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ComputeRev computes the sha256 hash of canonical JSON bytes.
// Returns "sha256:<hex>" format.
func ComputeRev(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// Rev returns the snapshot revision of a tracker
func Rev(t *domain.Tracker) (string, error) {
	data, err := CanonicalJSON(t)
	if err != nil {
		return "", err
	}
	return ComputeRev(data), nil
}

// PrettyJSON produces human-readable indented JSON (non-canonical).
func PrettyJSON(t *domain.Tracker) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}
