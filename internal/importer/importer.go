// Package importer turns share strings and tracker files into stored
// trackers, merging with the local copy when asked to.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/events"
	"github.com/lherron/wilds/internal/logging"
	"github.com/lherron/wilds/internal/merge"
	"github.com/lherron/wilds/internal/share"
	"github.com/lherron/wilds/internal/snapshot"
	"github.com/lherron/wilds/internal/store"
)

var (
	// ErrTrackerExists is returned by a create import of a tracker id that is already stored
	ErrTrackerExists = errors.New("tracker already exists")
	// ErrInvalidMode is returned for an unknown import mode
	ErrInvalidMode = errors.New("invalid import mode")
)

// Mode selects what happens when the imported tracker already exists
type Mode string

const (
	ModeCreate    Mode = "create"    // refuse
	ModeOverwrite Mode = "overwrite" // replace the local copy
	ModeMerge     Mode = "merge"     // merge into the local copy
)

// Actions reported in Result.Action
const (
	ActionCreated  = "created"
	ActionReplaced = "replaced"
	ActionMerged   = "merged"
)

// Options configures an import
type Options struct {
	Mode   Mode
	Format share.Format // empty means detect
	DryRun bool
}

// Result describes an import
type Result struct {
	TrackerID   string        `json:"tracker_id"`
	TrackerName string        `json:"tracker_name"`
	Format      share.Format  `json:"format"`
	Mode        Mode          `json:"mode"`
	Action      string        `json:"action"`
	SnapshotRev string        `json:"snapshot_rev"`
	DryRun      bool          `json:"dry_run,omitempty"`
	Diff        string        `json:"diff,omitempty"`
	Report      *merge.Report `json:"report,omitempty"`

	Tracker *domain.Tracker `json:"-"`
}

// Importer imports trackers into a repository
type Importer struct {
	repo   store.Repository
	events *events.Writer
	logger *slog.Logger

	// Now stamps merged and migrated trackers. Defaults to time.Now.
	Now func() time.Time
}

// New creates an importer. A nil events writer skips import audit events;
// a nil logger discards log output.
func New(repo store.Repository, ew *events.Writer, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Importer{repo: repo, events: ew, logger: logger, Now: time.Now}
}

// Import decodes data, validates it and stores it according to opts.
func (im *Importer) Import(ctx context.Context, data []byte, opts Options) (*Result, error) {
	if opts.Mode == "" {
		opts.Mode = ModeCreate
	}
	switch opts.Mode {
	case ModeCreate, ModeOverwrite, ModeMerge:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, opts.Mode)
	}

	incoming, format, err := share.Parse(data, opts.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse import: %w", err)
	}

	// Older exports may lack ids and defaults; validate what a current
	// tracker would hold.
	now := im.Now().UnixMilli()
	if domain.NeedsMigration(incoming) {
		im.logger.Info("migrating imported tracker",
			"tracker_id", incoming.TrackerID,
			"from_schema", incoming.SchemaVersion)
		domain.Migrate(incoming, now)
	}
	if err := domain.ValidateTracker(incoming); err != nil {
		return nil, err
	}

	existing, err := im.repo.Load(ctx, incoming.TrackerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	res := &Result{
		TrackerID: incoming.TrackerID,
		Format:    format,
		Mode:      opts.Mode,
		DryRun:    opts.DryRun,
		Action:    ActionCreated,
		Tracker:   incoming,
	}

	if existing != nil {
		switch opts.Mode {
		case ModeCreate:
			return nil, fmt.Errorf("%w: %s (%q)", ErrTrackerExists, existing.TrackerID, existing.TrackerName)
		case ModeOverwrite:
			res.Action = ActionReplaced
		case ModeMerge:
			merged, report := merge.TrackersWithReport(existing, incoming)
			merged.LastModified = max(merged.LastModified, now)
			res.Action = ActionMerged
			res.Tracker = merged
			res.Report = report
		}
	}

	res.TrackerName = res.Tracker.TrackerName
	if res.SnapshotRev, err = snapshot.Rev(res.Tracker); err != nil {
		return nil, err
	}

	im.logger.Info("importing tracker",
		"tracker_id", res.TrackerID,
		"format", format,
		"mode", opts.Mode,
		"action", res.Action,
		"dry_run", opts.DryRun)
	if res.Report != nil {
		im.logger.Info("merge resolved",
			"tracker_id", res.TrackerID,
			"clicks_added", res.Report.ClicksAdded,
			"changes_added", res.Report.ChangesAdded,
			"removed", res.Report.Removed,
			"conflicts", len(res.Report.Conflicts))
		for _, c := range res.Report.Conflicts {
			im.logger.Debug("merge conflict",
				"entity_type", c.EntityType,
				"entity_id", c.EntityID,
				"local", c.Local,
				"remote", c.Remote,
				"kept", c.Winner)
		}
	}

	if opts.DryRun {
		if res.Diff, err = Diff(existing, res.Tracker); err != nil {
			return nil, err
		}
		return res, nil
	}

	if err := im.repo.Save(ctx, res.Tracker); err != nil {
		return nil, err
	}
	if err := im.logEvent(res); err != nil {
		return nil, err
	}

	return res, nil
}

func (im *Importer) logEvent(res *Result) error {
	if im.events == nil {
		return nil
	}
	var err error
	if res.Action == ActionMerged {
		err = im.events.LogTrackerMerged(nil, res.TrackerID, res.Report)
	} else {
		err = im.events.LogTrackerImported(nil, res.Tracker, string(res.Mode))
	}
	if err != nil {
		return fmt.Errorf("failed to log import: %w", err)
	}
	return nil
}

// Diff returns a unified diff of the canonical, indented JSON of two
// trackers. A nil tracker diffs as empty.
func Diff(before, after *domain.Tracker) (string, error) {
	a, err := diffText(before)
	if err != nil {
		return "", err
	}
	b, err := diffText(after)
	if err != nil {
		return "", err
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "current",
		ToFile:   "incoming",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

func diffText(t *domain.Tracker) (string, error) {
	if t == nil {
		return "", nil
	}
	data, err := snapshot.PrettyJSON(snapshot.Canonicalize(t))
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
