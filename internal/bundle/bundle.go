// Package bundle writes every stored tracker to a backup directory and
// applies such a directory back to a database.
//
// A bundle looks like:
//
//	manifest.json
//	trackers/<name-slug>-<id-slug>.json
//	events.ndjson   (optional)
//
// Tracker files are pretty JSON in the user's order; the manifest records
// the snapshot revision of each so a modified file is caught on apply.
package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lherron/wilds/internal/bulk"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/events"
	"github.com/lherron/wilds/internal/importer"
	"github.com/lherron/wilds/internal/paths"
	"github.com/lherron/wilds/internal/share"
	"github.com/lherron/wilds/internal/snapshot"
	"github.com/lherron/wilds/internal/store"
)

// MachineInterfaceVersion is the manifest layout this package writes and reads
const MachineInterfaceVersion = 1

const (
	manifestFile = "manifest.json"
	trackersDir  = "trackers"
	eventsFile   = "events.ndjson"
)

var (
	// ErrBundleExists is returned when the output directory already holds a bundle
	ErrBundleExists = errors.New("bundle already exists")
	// ErrChecksum is returned for a tracker file that no longer matches its manifest revision
	ErrChecksum = errors.New("tracker file does not match manifest")
)

// Manifest represents the bundle manifest.json structure
type Manifest struct {
	MachineInterfaceVersion int     `json:"machine_interface_version"`
	Version                 string  `json:"version,omitempty"`
	Commit                  string  `json:"commit,omitempty"`
	BuildDate               string  `json:"build_date,omitempty"`
	Timestamp               string  `json:"timestamp"`
	Match                   string  `json:"match,omitempty"`
	WithArchived            bool    `json:"with_archived"`
	WithEvents              bool    `json:"with_events"`
	Trackers                []Entry `json:"trackers"`
}

// Entry is one tracker file of a bundle
type Entry struct {
	TrackerID   string `json:"tracker_id"`
	Name        string `json:"name"`
	Archived    bool   `json:"archived"`
	File        string `json:"file"` // relative to the bundle directory
	SnapshotRev string `json:"snapshot_rev"`
}

// Bundle represents a bundle directory and its manifest
type Bundle struct {
	Dir      string
	Manifest *Manifest
}

// CreateOptions configures Create
type CreateOptions struct {
	OutputDir    string
	Match        string // glob on tracker names or an exact id; empty means all
	WithArchived bool
	WithEvents   bool
	Jobs         int // parallel tracker writers; zero means one per CPU

	Version   string
	Commit    string
	BuildDate string

	Now      func() time.Time
	Progress io.Writer
}

// Create writes the selected trackers of repo to opts.OutputDir. Trackers
// are written in parallel; the manifest is only written when all of them
// succeeded, so a failed run never leaves an applicable bundle behind.
func Create(ctx context.Context, repo store.Repository, ev *events.Reader, opts CreateOptions) (*Bundle, *bulk.Result, error) {
	if opts.OutputDir == "" {
		return nil, nil, fmt.Errorf("bundle output directory required")
	}
	if _, err := os.Stat(filepath.Join(opts.OutputDir, manifestFile)); err == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrBundleExists, opts.OutputDir)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	summaries, err := repo.List(ctx, store.ListOptions{All: opts.WithArchived})
	if err != nil {
		return nil, nil, err
	}
	summaries = slices.DeleteFunc(summaries, func(s store.Summary) bool {
		return !Matches(opts.Match, s.TrackerID, s.Name)
	})

	if err := os.MkdirAll(filepath.Join(opts.OutputDir, trackersDir), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create bundle directory: %w", err)
	}

	// File names are fixed up front so parallel writers never collide
	files := assignFiles(summaries)
	ids := make([]string, len(summaries))
	for i, s := range summaries {
		ids[i] = s.TrackerID
	}

	var mu sync.Mutex
	written := make(map[string]Entry, len(summaries))

	op := &bulk.Operation{Jobs: opts.Jobs, ContinueOnError: true, Progress: opts.Progress}
	result := op.Execute(ctx, ids, func(ctx context.Context, trackerID string) error {
		entry, err := writeTracker(ctx, repo, opts.OutputDir, trackerID, files[trackerID])
		if err != nil {
			return err
		}
		mu.Lock()
		written[trackerID] = entry
		mu.Unlock()
		return nil
	})
	if err := result.Err(); err != nil {
		return nil, result, err
	}
	if err := ctx.Err(); err != nil {
		return nil, result, err
	}

	manifest := &Manifest{
		MachineInterfaceVersion: MachineInterfaceVersion,
		Version:                 opts.Version,
		Commit:                  opts.Commit,
		BuildDate:               opts.BuildDate,
		Timestamp:               opts.Now().UTC().Format(time.RFC3339),
		Match:                   opts.Match,
		WithArchived:            opts.WithArchived,
		WithEvents:              opts.WithEvents && ev != nil,
		Trackers:                make([]Entry, 0, len(ids)),
	}
	for _, id := range ids {
		manifest.Trackers = append(manifest.Trackers, written[id])
	}

	if manifest.WithEvents {
		if err := exportEvents(ev, opts.OutputDir, ids); err != nil {
			return nil, result, err
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, result, err
	}
	if err := os.WriteFile(filepath.Join(opts.OutputDir, manifestFile), append(data, '\n'), 0644); err != nil {
		return nil, result, fmt.Errorf("failed to write manifest: %w", err)
	}

	return &Bundle{Dir: opts.OutputDir, Manifest: manifest}, result, nil
}

// Matches reports whether a tracker is selected by pattern: empty selects
// everything, otherwise an exact id or a name glob.
func Matches(pattern, trackerID, name string) bool {
	if pattern == "" || pattern == trackerID {
		return true
	}
	return paths.MatchGlob(pattern, name)
}

func assignFiles(summaries []store.Summary) map[string]string {
	files := make(map[string]string, len(summaries))
	used := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		id := paths.Slug(s.TrackerID, "tracker")
		if len(id) > 8 {
			id = strings.TrimRight(id[:8], "-")
		}
		base := paths.Slug(s.Name, "tracker") + "-" + id
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		used[name] = true
		files[s.TrackerID] = filepath.ToSlash(filepath.Join(trackersDir, name+".json"))
	}
	return files
}

func writeTracker(ctx context.Context, repo store.Repository, dir, trackerID, file string) (Entry, error) {
	t, err := repo.Load(ctx, trackerID)
	if err != nil {
		return Entry{}, err
	}
	data, err := snapshot.PrettyJSON(t)
	if err != nil {
		return Entry{}, err
	}
	rev, err := snapshot.Rev(t)
	if err != nil {
		return Entry{}, err
	}
	if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(file)), append(data, '\n'), 0644); err != nil {
		return Entry{}, fmt.Errorf("failed to write %s: %w", file, err)
	}
	return Entry{
		TrackerID:   t.TrackerID,
		Name:        t.TrackerName,
		Archived:    t.Archived,
		File:        file,
		SnapshotRev: rev,
	}, nil
}

// exportEvents writes the audit events of the bundled trackers, oldest first
func exportEvents(ev *events.Reader, dir string, ids []string) error {
	all, err := ev.List("", 0)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	f, err := os.Create(filepath.Join(dir, eventsFile))
	if err != nil {
		return fmt.Errorf("failed to create events file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for _, e := range slices.Backward(all) {
		if !keep[e.TrackerID] {
			continue
		}
		if err := encoder.Encode(e); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return f.Close()
}

// LoadManifest reads and validates the bundle manifest
func LoadManifest(bundleDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(bundleDir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	switch {
	case manifest.MachineInterfaceVersion == 0:
		return nil, fmt.Errorf("manifest missing machine_interface_version")
	case manifest.MachineInterfaceVersion != MachineInterfaceVersion:
		return nil, fmt.Errorf("bundle machine_interface_version (%d) doesn't match current version (%d)",
			manifest.MachineInterfaceVersion, MachineInterfaceVersion)
	}

	for _, e := range manifest.Trackers {
		if e.TrackerID == "" {
			return nil, fmt.Errorf("manifest entry %q has no tracker_id", e.File)
		}
		clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(e.File)))
		if !strings.HasPrefix(clean, trackersDir+"/") {
			return nil, fmt.Errorf("manifest entry %s: file %q is outside %s/", e.TrackerID, e.File, trackersDir)
		}
	}

	return &manifest, nil
}

// Load reads a bundle directory
func Load(bundleDir string) (*Bundle, error) {
	manifest, err := LoadManifest(bundleDir)
	if err != nil {
		return nil, err
	}
	return &Bundle{Dir: bundleDir, Manifest: manifest}, nil
}

// ReadTracker reads the file of e and checks it against the manifest revision
func (b *Bundle) ReadTracker(e Entry) ([]byte, *domain.Tracker, error) {
	data, err := os.ReadFile(filepath.Join(b.Dir, filepath.FromSlash(e.File)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", e.File, err)
	}
	t, _, err := share.Parse(data, share.FormatJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", e.File, err)
	}
	rev, err := snapshot.Rev(t)
	if err != nil {
		return nil, nil, err
	}
	if rev != e.SnapshotRev {
		return nil, nil, fmt.Errorf("%w: %s has %s, manifest says %s", ErrChecksum, e.File, rev, e.SnapshotRev)
	}
	return data, t, nil
}

// ApplyOptions configures Apply
type ApplyOptions struct {
	Mode            importer.Mode
	DryRun          bool
	Match           string
	ContinueOnError bool
	Progress        io.Writer
}

// Applied pairs a bundle entry with its import result
type Applied struct {
	Entry  Entry            `json:"entry"`
	Result *importer.Result `json:"result"`
}

// Apply imports the selected trackers of b one at a time. Item failures are
// reported through the bulk result; the returned slice holds the successes
// in manifest order.
func Apply(ctx context.Context, b *Bundle, im *importer.Importer, opts ApplyOptions) ([]Applied, *bulk.Result) {
	entries := make(map[string]Entry, len(b.Manifest.Trackers))
	var ids []string
	for _, e := range b.Manifest.Trackers {
		if !Matches(opts.Match, e.TrackerID, e.Name) {
			continue
		}
		entries[e.TrackerID] = e
		ids = append(ids, e.TrackerID)
	}

	var applied []Applied
	op := &bulk.Operation{Ordered: true, ContinueOnError: opts.ContinueOnError, Progress: opts.Progress}
	result := op.Execute(ctx, ids, func(ctx context.Context, trackerID string) error {
		e := entries[trackerID]
		data, _, err := b.ReadTracker(e)
		if err != nil {
			return err
		}
		res, err := im.Import(ctx, data, importer.Options{Mode: opts.Mode, Format: share.FormatJSON, DryRun: opts.DryRun})
		if err != nil {
			return err
		}
		applied = append(applied, Applied{Entry: e, Result: res})
		return nil
	})

	return applied, result
}
