package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/events"
	"github.com/lherron/wilds/internal/snapshot"
)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Load returns the tracker with the given id. A tracker stored by an older
// schema is migrated and saved back before it is returned.
func (s *Store) Load(ctx context.Context, trackerID string) (*domain.Tracker, error) {
	t, err := s.load(ctx, s.db, trackerID)
	if err != nil {
		return nil, err
	}

	if domain.NeedsMigration(t) {
		from := t.SchemaVersion
		domain.Migrate(t, s.Now().UnixMilli())
		if err := s.Save(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to save migrated tracker %s: %w", trackerID, err)
		}
		s.logger.Info("migrated tracker",
			"tracker_id", trackerID,
			"from_schema", from,
			"to_schema", t.SchemaVersion)
	}

	return t, nil
}

func (s *Store) load(ctx context.Context, q querier, trackerID string) (*domain.Tracker, error) {
	var state string
	err := q.QueryRowContext(ctx, "SELECT state FROM trackers WHERE tracker_id = ?", trackerID).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(trackerID)
		}
		return nil, fmt.Errorf("failed to load tracker %s: %w", trackerID, err)
	}

	var t domain.Tracker
	if err := json.Unmarshal([]byte(state), &t); err != nil {
		return nil, fmt.Errorf("failed to decode tracker %s: %w", trackerID, err)
	}
	if t.TrackerID == "" {
		t.TrackerID = trackerID
	}
	return &t, nil
}

// Save inserts or replaces a tracker and logs a tracker.saved event.
func (s *Store) Save(ctx context.Context, t *domain.Tracker) error {
	if t == nil || t.TrackerID == "" {
		return fmt.Errorf("cannot save tracker without id")
	}

	return s.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		rev, err := s.write(ctx, tx, t)
		if err != nil {
			return err
		}
		if err := ew.LogTrackerSaved(tx, t, rev); err != nil {
			return fmt.Errorf("failed to log event: %w", err)
		}
		s.logger.Debug("saved tracker", "tracker_id", t.TrackerID, "snapshot_rev", rev)
		return nil
	})
}

// write upserts the tracker row and returns its snapshot revision
func (s *Store) write(ctx context.Context, tx *sql.Tx, t *domain.Tracker) (string, error) {
	state, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to encode tracker %s: %w", t.TrackerID, err)
	}

	rev, err := snapshot.Rev(t)
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trackers (tracker_id, name, archived, schema_version, last_modified, state, snapshot_rev)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tracker_id) DO UPDATE SET
			name = excluded.name,
			archived = excluded.archived,
			schema_version = excluded.schema_version,
			last_modified = excluded.last_modified,
			state = excluded.state,
			snapshot_rev = excluded.snapshot_rev,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')
	`, t.TrackerID, t.TrackerName, t.Archived, t.SchemaVersion, t.LastModified, string(state), rev)
	if err != nil {
		return "", fmt.Errorf("failed to save tracker %s: %w", t.TrackerID, err)
	}
	return rev, nil
}

// Exists reports whether a tracker with the given id is stored
func (s *Store) Exists(ctx context.Context, trackerID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trackers WHERE tracker_id = ?", trackerID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check tracker %s: %w", trackerID, err)
	}
	return n > 0, nil
}

// List returns tracker summaries, most recently modified first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	query := `
		SELECT tracker_id, name, archived, schema_version, last_modified, snapshot_rev, updated_at
		FROM trackers
	`
	var args []interface{}
	if !opts.All {
		query += ` WHERE archived = ?`
		args = append(args, opts.Archived)
	}
	query += ` ORDER BY last_modified DESC, tracker_id`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trackers: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.TrackerID, &sum.Name, &sum.Archived, &sum.SchemaVersion,
			&sum.LastModified, &sum.SnapshotRev, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tracker: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trackers: %w", err)
	}
	return out, nil
}

// SetArchived moves a tracker between the active and archived lists.
func (s *Store) SetArchived(ctx context.Context, trackerID string, archived bool) error {
	return s.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		t, err := s.load(ctx, tx, trackerID)
		if err != nil {
			return err
		}
		if t.Archived == archived {
			return nil
		}

		t.Archived = archived
		if _, err := s.write(ctx, tx, t); err != nil {
			return err
		}
		if err := ew.LogTrackerArchived(tx, trackerID, archived); err != nil {
			return fmt.Errorf("failed to log event: %w", err)
		}
		return nil
	})
}

// Delete permanently removes a tracker. Its audit events are kept.
func (s *Store) Delete(ctx context.Context, trackerID string) error {
	return s.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM trackers WHERE tracker_id = ?", trackerID)
		if err != nil {
			return fmt.Errorf("failed to delete tracker %s: %w", trackerID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to delete tracker %s: %w", trackerID, err)
		}
		if n == 0 {
			return notFound(trackerID)
		}
		if err := ew.LogTrackerDeleted(tx, trackerID); err != nil {
			return fmt.Errorf("failed to log event: %w", err)
		}
		return nil
	})
}
