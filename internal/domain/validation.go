package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidTracker is wrapped by every tracker validation failure
var ErrInvalidTracker = errors.New("invalid tracker data")

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError lists the fields that failed validation
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidTracker, strings.Join(e.Fields, "; "))
}

// Unwrap lets errors.Is match ErrInvalidTracker
func (e *ValidationError) Unwrap() error {
	return ErrInvalidTracker
}

// ValidateTracker checks decoded tracker data before it is stored or merged.
// It only checks structure; referential consistency is the merge layer's job.
func ValidateTracker(t *Tracker) error {
	if t == nil {
		return &ValidationError{Fields: []string{"tracker is empty"}}
	}

	err := validate.Struct(t)
	if err == nil {
		return validateUniqueIDs(t)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidTracker, err)
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return &ValidationError{Fields: fields}
}

// validateUniqueIDs rejects trackers where one id names two screens or two
// buttons; the merge engine keys everything by id.
func validateUniqueIDs(t *Tracker) error {
	var dupes []string
	screens := make(map[string]bool)
	buttons := make(map[string]bool)
	for _, s := range t.Screens {
		if screens[s.ID] {
			dupes = append(dupes, "duplicate screen id "+s.ID)
		}
		screens[s.ID] = true
		for _, b := range s.Buttons {
			if buttons[b.ID] {
				dupes = append(dupes, "duplicate button id "+b.ID)
			}
			buttons[b.ID] = true
		}
	}

	questionnaires := make(map[string]bool)
	for _, q := range t.Questionnaires {
		if questionnaires[q.ID] {
			dupes = append(dupes, "duplicate questionnaire id "+q.ID)
		}
		questionnaires[q.ID] = true
	}

	if len(dupes) > 0 {
		return &ValidationError{Fields: dupes}
	}
	return nil
}

// ValidateScaleValue checks a response value against its scale
func ValidateScaleValue(scale ScaleType, value int) error {
	lo, hi := 0, 1
	switch scale {
	case ScaleBinary:
	case ScaleFivePoint:
		lo, hi = -2, 2
	case ScaleSevenPoint:
		lo, hi = -3, 3
	default:
		return fmt.Errorf("invalid scale type: %q", scale)
	}
	if value < lo || value > hi {
		return fmt.Errorf("invalid response value %d: %s scale accepts %d..%d", value, scale, lo, hi)
	}
	return nil
}
