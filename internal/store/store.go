// Package store provides a persistence layer for trackers. Every write runs
// in a transaction together with its audit event.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lherron/wilds/internal/db"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/events"
	"github.com/lherron/wilds/internal/logging"
)

// ErrNotFound is returned when no tracker has the requested id
var ErrNotFound = errors.New("tracker not found")

// Repository is the storage the importer and CLI depend on
type Repository interface {
	Load(ctx context.Context, trackerID string) (*domain.Tracker, error)
	Save(ctx context.Context, t *domain.Tracker) error
	Exists(ctx context.Context, trackerID string) (bool, error)
	List(ctx context.Context, opts ListOptions) ([]Summary, error)
	SetArchived(ctx context.Context, trackerID string, archived bool) error
	Delete(ctx context.Context, trackerID string) error
}

// ListOptions filters List. By default only active trackers are listed.
type ListOptions struct {
	Archived bool // only archived trackers
	All      bool // active and archived trackers
	Limit    int  // zero means no limit
}

// Summary describes a stored tracker without decoding its state
type Summary struct {
	TrackerID     string `json:"tracker_id"`
	Name          string `json:"name"`
	Archived      bool   `json:"archived"`
	SchemaVersion int    `json:"schema_version"`
	LastModified  int64  `json:"last_modified"`
	SnapshotRev   string `json:"snapshot_rev"`
	UpdatedAt     string `json:"updated_at"`
}

// Store is the SQLite Repository.
type Store struct {
	db     *db.DB
	logger *slog.Logger

	// Now stamps trackers migrated on load. Defaults to time.Now.
	Now func() time.Time
}

var _ Repository = (*Store)(nil)

// New creates a new Store wrapping the given database connection.
// A nil logger discards log output.
func New(database *db.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{db: database, logger: logger, Now: time.Now}
}

// DB returns the underlying database connection (for read-only queries).
func (s *Store) DB() *db.DB {
	return s.db
}

// withTx executes fn within a transaction. If fn returns nil, the transaction
// is committed; otherwise it is rolled back.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx, ew *events.Writer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ew := events.NewWriter(s.db.DB)
	if err := fn(tx, ew); err != nil {
		return err
	}

	return tx.Commit()
}

func notFound(trackerID string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, trackerID)
}
