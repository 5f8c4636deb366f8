package merge

import (
	"testing"

	"github.com/lherron/wilds/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeLogsDeduplicates(t *testing.T) {
	shared := change(domain.EntityButton, "b1", domain.ChangeRename, 100, "Water", "Hydration")
	a := []domain.EntityChange{shared, change(domain.EntityScreen, "s1", domain.ChangeArchive, 50, "", "")}
	b := []domain.EntityChange{shared, change(domain.EntityButton, "b1", domain.ChangeMove, 100, "s1", "s2")}

	got := ChangeLogs(a, b)
	require.Len(t, got, 3)

	seen := make(map[domain.ChangeKey]int)
	for _, c := range got {
		seen[c.Key()]++
	}
	assert.Equal(t, 1, seen[shared.Key()])
	assert.Equal(t, int64(50), got[0].Timestamp)
}

func TestChangeLogsSortedAndOrderIndependent(t *testing.T) {
	a := []domain.EntityChange{
		change(domain.EntityScreen, "s2", domain.ChangeRename, 300, "", "C"),
		change(domain.EntityButton, "b2", domain.ChangeArchive, 100, "", ""),
	}
	b := []domain.EntityChange{
		change(domain.EntityButton, "b1", domain.ChangeArchive, 100, "", ""),
		change(domain.EntityScreen, "s1", domain.ChangeRename, 200, "", "B"),
	}

	ab := ChangeLogs(a, b)
	ba := ChangeLogs(b, a)
	assert.Equal(t, ab, ba)

	var ts []int64
	for _, c := range ab {
		ts = append(ts, c.Timestamp)
	}
	assert.Equal(t, []int64{100, 100, 200, 300}, ts)
	assert.Equal(t, "b1", ab[0].EntityID)
	assert.Equal(t, "b2", ab[1].EntityID)
}

func TestChangeLogsDoesNotAliasInputs(t *testing.T) {
	prev, next := 1, 2
	a := []domain.EntityChange{{EntityID: "r1", EntityType: domain.EntityResponse, ChangeType: domain.ChangeEdit, Timestamp: 1, PreviousValue: &prev, NewResponseValue: &next}}

	got := ChangeLogs(a, nil)
	*got[0].PreviousValue = 9
	assert.Equal(t, 1, prev)
	assert.Empty(t, ChangeLogs(nil, nil))
}
