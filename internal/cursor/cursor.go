// Package cursor implements opaque keyset pagination cursors for SQL
// listings.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Cursor represents a pagination cursor with sort fields and last seen values
type Cursor struct {
	SortFields []string      `json:"sort_fields,omitempty"`
	LastValues []interface{} `json:"last_values,omitempty"`
	LastID     string        `json:"last_id"`
}

// Encode serializes the cursor to an opaque base64 string
func (c *Cursor) Encode() (string, error) {
	if len(c.SortFields) != len(c.LastValues) {
		return "", fmt.Errorf("sort fields and last values length mismatch")
	}

	jsonData, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(jsonData), nil
}

// Decode deserializes a cursor from an opaque base64 string
func Decode(encoded string) (*Cursor, error) {
	if encoded == "" {
		return nil, fmt.Errorf("empty cursor string")
	}

	jsonData, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	var c Cursor
	if err := json.Unmarshal(jsonData, &c); err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}

	if len(c.SortFields) != len(c.LastValues) {
		return nil, fmt.Errorf("cursor sort fields and values length mismatch")
	}
	if c.LastID == "" {
		return nil, fmt.Errorf("cursor missing last ID")
	}

	return &c, nil
}

// BuildWhereClause constructs a SQL WHERE clause selecting the rows after
// the cursor. descending holds one flag per sort field plus a final one for
// idColumn. For ORDER BY a DESC, id DESC it generates:
//
//	((a < ?) OR (a = ? AND id < ?))
func (c *Cursor) BuildWhereClause(idColumn string, descending []bool) (string, []interface{}, error) {
	if len(descending) != len(c.SortFields)+1 {
		return "", nil, fmt.Errorf("expected %d sort directions, got %d", len(c.SortFields)+1, len(descending))
	}

	fields := append(append([]string{}, c.SortFields...), idColumn)
	values := append(append([]interface{}{}, c.LastValues...), c.LastID)

	var params []interface{}
	var orConditions []string

	// Level i: equality on fields 0..i-1, comparison on field i
	for i := range fields {
		var andParts []string
		for j := range i {
			andParts = append(andParts, fields[j]+" = ?")
			params = append(params, values[j])
		}

		op := ">"
		if descending[i] {
			op = "<"
		}
		andParts = append(andParts, fmt.Sprintf("%s %s ?", fields[i], op))
		params = append(params, values[i])

		orConditions = append(orConditions, "("+strings.Join(andParts, " AND ")+")")
	}

	return "(" + strings.Join(orConditions, " OR ") + ")", params, nil
}

// NewCursor creates a new cursor from the last row values
func NewCursor(sortFields []string, lastValues []interface{}, lastID string) (*Cursor, error) {
	if len(sortFields) != len(lastValues) {
		return nil, fmt.Errorf("sort fields and last values length mismatch")
	}
	if lastID == "" {
		return nil, fmt.Errorf("last ID required")
	}

	return &Cursor{
		SortFields: sortFields,
		LastValues: lastValues,
		LastID:     lastID,
	}, nil
}

// ApplyOptions describes the ordering of a paginated query
type ApplyOptions struct {
	SortFields []string
	Descending []bool // one per sort field plus one for IDColumn
	IDColumn   string
	Limit      int // zero or less means no limit
}

// Pagination holds the SQL fragments for one page
type Pagination struct {
	WhereClause   string // empty on the first page
	Params        []interface{}
	OrderByClause string
	LimitClause   string
	LimitParam    *int // Limit+1, so callers can tell whether another page exists
}

// Apply decodes an optional cursor and returns the SQL for the page after it
func Apply(encoded string, opts ApplyOptions) (*Pagination, error) {
	if len(opts.Descending) != len(opts.SortFields)+1 {
		return nil, fmt.Errorf("expected %d sort directions, got %d", len(opts.SortFields)+1, len(opts.Descending))
	}

	pag := &Pagination{}

	if encoded != "" {
		c, err := Decode(encoded)
		if err != nil {
			return nil, err
		}
		if strings.Join(c.SortFields, ",") != strings.Join(opts.SortFields, ",") {
			return nil, fmt.Errorf("cursor sort fields %v do not match query sort fields %v", c.SortFields, opts.SortFields)
		}
		if pag.WhereClause, pag.Params, err = c.BuildWhereClause(opts.IDColumn, opts.Descending); err != nil {
			return nil, err
		}
	}

	order := make([]string, 0, len(opts.Descending))
	for i, f := range append(append([]string{}, opts.SortFields...), opts.IDColumn) {
		dir := "ASC"
		if opts.Descending[i] {
			dir = "DESC"
		}
		order = append(order, f+" "+dir)
	}
	pag.OrderByClause = "ORDER BY " + strings.Join(order, ", ")

	if opts.Limit > 0 {
		fetch := opts.Limit + 1
		pag.LimitClause = "LIMIT ?"
		pag.LimitParam = &fetch
	}

	return pag, nil
}

// BuildNextCursor encodes the cursor for the page after the given last row
func BuildNextCursor(sortFields []string, lastValues []interface{}, lastID string) (string, error) {
	c, err := NewCursor(sortFields, lastValues, lastID)
	if err != nil {
		return "", err
	}
	return c.Encode()
}
