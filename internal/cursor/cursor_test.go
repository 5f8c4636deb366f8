package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		cursor Cursor
	}{
		{"id only", Cursor{LastID: "42"}},
		{"one sort field", Cursor{SortFields: []string{"last_modified"}, LastValues: []interface{}{"2025-01-01"}, LastID: "t-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := tt.cursor.Encode()
			require.NoError(t, err)
			assert.NotContains(t, encoded, "=")

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.cursor.SortFields, decoded.SortFields)
			assert.Equal(t, tt.cursor.LastValues, decoded.LastValues)
			assert.Equal(t, tt.cursor.LastID, decoded.LastID)
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	for name, input := range map[string]string{
		"empty":      "",
		"not base64": "!!!",
		"not json":   "bm90IGpzb24",
		"no last id": "e30",
		"mismatched": "eyJzb3J0X2ZpZWxkcyI6WyJhIl0sImxhc3RfaWQiOiIxIn0",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(input)
			assert.Error(t, err)
		})
	}
}

func TestBuildWhereClause(t *testing.T) {
	c := &Cursor{LastID: "42"}
	where, params, err := c.BuildWhereClause("id", []bool{true})
	require.NoError(t, err)
	assert.Equal(t, "((id < ?))", where)
	assert.Equal(t, []interface{}{"42"}, params)

	c = &Cursor{SortFields: []string{"a", "b"}, LastValues: []interface{}{1, "x"}, LastID: "9"}
	where, params, err = c.BuildWhereClause("id", []bool{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, "((a < ?) OR (a = ? AND b > ?) OR (a = ? AND b = ? AND id < ?))", where)
	assert.Equal(t, []interface{}{1, 1, "x", 1, "x", "9"}, params)

	_, _, err = c.BuildWhereClause("id", []bool{true})
	assert.Error(t, err)
}

func TestNewCursor(t *testing.T) {
	_, err := NewCursor([]string{"a"}, nil, "1")
	assert.Error(t, err)

	_, err = NewCursor(nil, nil, "")
	assert.Error(t, err)

	c, err := NewCursor(nil, nil, "7")
	require.NoError(t, err)
	assert.Equal(t, "7", c.LastID)
}

func TestApply(t *testing.T) {
	opts := ApplyOptions{IDColumn: "id", Descending: []bool{true}, Limit: 10}

	pag, err := Apply("", opts)
	require.NoError(t, err)
	assert.Empty(t, pag.WhereClause)
	assert.Equal(t, "ORDER BY id DESC", pag.OrderByClause)
	assert.Equal(t, "LIMIT ?", pag.LimitClause)
	require.NotNil(t, pag.LimitParam)
	assert.Equal(t, 11, *pag.LimitParam)

	next, err := BuildNextCursor(nil, nil, "5")
	require.NoError(t, err)
	pag, err = Apply(next, opts)
	require.NoError(t, err)
	assert.Equal(t, "((id < ?))", pag.WhereClause)
	assert.Equal(t, []interface{}{"5"}, pag.Params)

	pag, err = Apply("", ApplyOptions{IDColumn: "id", Descending: []bool{false}})
	require.NoError(t, err)
	assert.Equal(t, "ORDER BY id ASC", pag.OrderByClause)
	assert.Empty(t, pag.LimitClause)
	assert.Nil(t, pag.LimitParam)
}

func TestApplyRejectsForeignCursor(t *testing.T) {
	other, err := BuildNextCursor([]string{"name"}, []interface{}{"x"}, "5")
	require.NoError(t, err)

	_, err = Apply(other, ApplyOptions{IDColumn: "id", Descending: []bool{true}})
	assert.Error(t, err)

	_, err = Apply("", ApplyOptions{IDColumn: "id"})
	assert.Error(t, err)
}
