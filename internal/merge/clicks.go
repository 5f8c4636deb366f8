package merge

import (
	"cmp"
	"slices"

	"github.com/lherron/wilds/internal/domain"
)

// Clicks unions two click logs. A timestamp identifies a click, so entries of
// b replace equal-timestamp entries of a. The result is sorted newest first.
func Clicks(a, b []domain.ClickRecord) []domain.ClickRecord {
	byTimestamp := make(map[int64]domain.ClickRecord, len(a)+len(b))
	for _, c := range a {
		byTimestamp[c.Timestamp] = c
	}
	for _, c := range b {
		byTimestamp[c.Timestamp] = c
	}

	out := make([]domain.ClickRecord, 0, len(byTimestamp))
	for _, c := range byTimestamp {
		out = append(out, c)
	}
	slices.SortFunc(out, func(x, y domain.ClickRecord) int {
		return cmp.Compare(y.Timestamp, x.Timestamp)
	})
	return out
}
