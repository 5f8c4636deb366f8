package events

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lherron/wilds/internal/cursor"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/merge"
)

// Event types written to the event log
const (
	TypeSaved      = "tracker.saved"
	TypeImported   = "tracker.imported"
	TypeMerged     = "tracker.merged"
	TypeArchived   = "tracker.archived"
	TypeUnarchived = "tracker.unarchived"
	TypeDeleted    = "tracker.deleted"
)

// Event is one row of the audit log
type Event struct {
	ID        int64   `json:"id"`
	Timestamp string  `json:"timestamp"`
	TrackerID string  `json:"tracker_id"`
	EventType string  `json:"event_type"`
	Payload   *string `json:"payload,omitempty"`
}

// Writer handles writing events to the event log
type Writer struct {
	db *sql.DB
}

// NewWriter creates a new event writer
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// LogEvent writes an event to the event log
func (w *Writer) LogEvent(tx *sql.Tx, event *Event) error {
	query := `
		INSERT INTO event_log (tracker_id, event_type, payload)
		VALUES (?, ?, ?)
	`

	executor := w.getExecutor(tx)
	_, err := executor.Exec(query, event.TrackerID, event.EventType, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogTrackerSaved logs a save of a tracker's state
func (w *Writer) LogTrackerSaved(tx *sql.Tx, t *domain.Tracker, snapshotRev string) error {
	return w.logPayload(tx, t.TrackerID, TypeSaved, map[string]interface{}{
		"name":          t.TrackerName,
		"last_modified": t.LastModified,
		"snapshot_rev":  snapshotRev,
	})
}

// LogTrackerImported logs an import that created or replaced a tracker
func (w *Writer) LogTrackerImported(tx *sql.Tx, t *domain.Tracker, mode string) error {
	return w.logPayload(tx, t.TrackerID, TypeImported, map[string]interface{}{
		"name":    t.TrackerName,
		"mode":    mode,
		"screens": len(t.Screens),
		"changes": len(t.ChangeLog),
	})
}

// LogTrackerMerged logs an import merge together with what it changed
func (w *Writer) LogTrackerMerged(tx *sql.Tx, trackerID string, report *merge.Report) error {
	return w.logPayload(tx, trackerID, TypeMerged, report)
}

// LogTrackerArchived logs an archive flag change
func (w *Writer) LogTrackerArchived(tx *sql.Tx, trackerID string, archived bool) error {
	eventType := TypeUnarchived
	if archived {
		eventType = TypeArchived
	}
	return w.LogEvent(tx, &Event{TrackerID: trackerID, EventType: eventType})
}

// LogTrackerDeleted logs a tracker deletion event
func (w *Writer) LogTrackerDeleted(tx *sql.Tx, trackerID string) error {
	return w.LogEvent(tx, &Event{TrackerID: trackerID, EventType: TypeDeleted})
}

func (w *Writer) logPayload(tx *sql.Tx, trackerID, eventType string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	payloadStr := string(payload)
	return w.LogEvent(tx, &Event{
		TrackerID: trackerID,
		EventType: eventType,
		Payload:   &payloadStr,
	})
}

// getExecutor returns the appropriate executor (tx or db)
func (w *Writer) getExecutor(tx *sql.Tx) interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
} {
	if tx != nil {
		return tx
	}
	return w.db
}

// Reader reads the event log
type Reader struct {
	db *sql.DB
}

// NewReader creates a new event reader
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// ListOptions selects a page of the event log
type ListOptions struct {
	TrackerID string // empty lists every tracker
	Limit     int    // zero or less means no limit
	Cursor    string // from a previous page
}

// List returns events newest first. An empty trackerID lists every tracker;
// a limit of zero or less means no limit.
func (r *Reader) List(trackerID string, limit int) ([]Event, error) {
	evs, _, err := r.Page(ListOptions{TrackerID: trackerID, Limit: limit})
	return evs, err
}

// Page returns one page of events, newest first, and the cursor of the next
// page. The cursor is empty on the last page.
func (r *Reader) Page(opts ListOptions) ([]Event, string, error) {
	pag, err := cursor.Apply(opts.Cursor, cursor.ApplyOptions{
		IDColumn:   "id",
		Descending: []bool{true},
		Limit:      opts.Limit,
	})
	if err != nil {
		return nil, "", err
	}

	query := `SELECT id, timestamp, tracker_id, event_type, payload FROM event_log`
	var where []string
	var args []interface{}
	if opts.TrackerID != "" {
		where = append(where, "tracker_id = ?")
		args = append(args, opts.TrackerID)
	}
	if pag.WhereClause != "" {
		where = append(where, pag.WhereClause)
		args = append(args, pag.Params...)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " " + pag.OrderByClause
	if pag.LimitClause != "" {
		query += " " + pag.LimitClause
		args = append(args, *pag.LimitParam)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var payload sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.TrackerID, &e.EventType, &payload); err != nil {
			return nil, "", fmt.Errorf("failed to scan event: %w", err)
		}
		if payload.Valid {
			e.Payload = &payload.String
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating events: %w", err)
	}

	// One extra row was requested to detect another page
	var next string
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
		last := out[len(out)-1]
		if next, err = cursor.BuildNextCursor(nil, nil, strconv.FormatInt(last.ID, 10)); err != nil {
			return nil, "", err
		}
	}
	return out, next, nil
}
