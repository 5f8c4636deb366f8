package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	TrackerID string `json:"tracker_id"`
	Name      string `json:"name"`
	Archived  bool   `json:"archived,omitempty"`
}

var (
	headers = []string{"ID", "NAME"}
	rows    = [][]string{{"t-1", "Habits"}, {"t-22", "Café"}}
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	f, err = ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, Options{})
	require.NoError(t, r.Render(nil, headers, rows))

	assert.Equal(t, "ID    NAME\n----  ------\nt-1   Habits\nt-22  Café\n", buf.String())
}

func TestRenderTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, Options{}).RenderTable(headers, nil))
	assert.Empty(t, buf.String())
}

func TestRenderTSV(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, Options{Format: FormatTSV})
	require.NoError(t, r.Render(nil, headers, rows))
	assert.Equal(t, "ID\tNAME\nt-1\tHabits\nt-22\tCafé\n", buf.String())
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, Options{Format: FormatJSON})
	assert.True(t, r.Structured())
	require.NoError(t, r.Render([]row{{TrackerID: "t-1", Name: "<Habits>"}}, nil, nil))
	assert.JSONEq(t, `[{"tracker_id":"t-1","name":"<Habits>"}]`, buf.String())
	assert.Contains(t, buf.String(), "<Habits>")
}

func TestRenderYAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, Options{Format: FormatYAML})
	require.NoError(t, r.Render(row{TrackerID: "t-1", Name: "Habits", Archived: true}, nil, nil))
	assert.Equal(t, "archived: true\nname: Habits\ntracker_id: t-1\n", buf.String())
}
