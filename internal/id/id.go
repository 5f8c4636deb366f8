package id

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	entityIDPattern = regexp.MustCompile(`^(screen|button|questionnaire|question|filled|notification)-(\d+)-\d+$`)
	uuidPattern     = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// Kind represents the kind of entity an id names
type Kind string

const (
	KindScreen        Kind = "screen"
	KindButton        Kind = "button"
	KindQuestionnaire Kind = "questionnaire"
	KindQuestion      Kind = "question"
	KindFilled        Kind = "filled"
	KindNotification  Kind = "notification"
)

// Generator produces entity ids
type Generator interface {
	New(kind Kind) string
}

// RandomGenerator formats ids from the wall clock and a random suffix,
// matching ids produced by other devices.
type RandomGenerator struct {
	Now func() time.Time
}

// New returns a fresh id of the given kind
func (g RandomGenerator) New(kind Kind) string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return Format(kind, now().UnixMilli(), rand.IntN(10000))
}

// Format builds an entity id from its parts
func Format(kind Kind, millis int64, suffix int) string {
	return Sanitize(fmt.Sprintf("%s-%d-%d", kind, millis, suffix))
}

// Sanitize collapses whitespace runs into dashes
func Sanitize(s string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(s), "-")
}

// NewTrackerID returns a new tracker id (UUIDv4)
func NewTrackerID() string {
	return uuid.NewString()
}

// Parse splits an entity id into its kind and creation time
func Parse(s string) (Kind, int64, error) {
	m := entityIDPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", 0, fmt.Errorf("invalid entity ID format: %s", s)
	}
	millis, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid entity ID timestamp: %s", s)
	}
	return Kind(m[1]), millis, nil
}

// KindOf returns the kind encoded in an entity id
func KindOf(s string) (Kind, bool) {
	kind, _, err := Parse(s)
	return kind, err == nil
}

// IsUUID checks if a string is a valid UUID
func IsUUID(s string) bool {
	return uuidPattern.MatchString(strings.ToLower(s))
}
