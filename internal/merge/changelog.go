package merge

import (
	"cmp"
	"slices"

	"github.com/lherron/wilds/internal/domain"
)

// ChangeLogs unions two change logs, keeping one record per
// (entityId, timestamp, changeType) and sorting by timestamp.
// Records sharing a timestamp are ordered by entity type, entity id and
// change type so the result does not depend on argument order.
func ChangeLogs(a, b []domain.EntityChange) []domain.EntityChange {
	index := make(map[domain.ChangeKey]int, len(a)+len(b))
	out := make([]domain.EntityChange, 0, len(a)+len(b))
	for _, log := range [][]domain.EntityChange{a, b} {
		for _, c := range log {
			if i, ok := index[c.Key()]; ok {
				out[i] = c.Clone()
				continue
			}
			index[c.Key()] = len(out)
			out = append(out, c.Clone())
		}
	}

	slices.SortFunc(out, CompareChanges)
	return out
}

// CompareChanges orders change-log records by time, then entity and change type
func CompareChanges(x, y domain.EntityChange) int {
	return cmp.Or(
		cmp.Compare(x.Timestamp, y.Timestamp),
		cmp.Compare(x.EntityType, y.EntityType),
		cmp.Compare(x.EntityID, y.EntityID),
		cmp.Compare(x.ChangeType, y.ChangeType),
	)
}
