package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lherron/wilds/internal/cli/appctx"
	"github.com/lherron/wilds/internal/domain"
	"github.com/lherron/wilds/internal/selectors"
	"github.com/lherron/wilds/internal/store"
)

// trackerArgs splits args into a tracker selector and the n arguments that
// follow it. The tracker may be omitted when a default tracker is set.
func trackerArgs(app *appctx.App, args []string, n int) (string, []string, error) {
	switch {
	case len(args) == n+1:
		return args[0], args[1:], nil
	case len(args) == n && app.Config.DefaultTracker != "":
		return app.Config.DefaultTracker, args, nil
	}
	return "", nil, fmt.Errorf("tracker not specified (pass it as the first argument, use --tracker or set WILDS_TRACKER)")
}

// loadTracker resolves a tracker selector and loads the tracker
func loadTracker(ctx context.Context, app *appctx.App, selector string) (*domain.Tracker, error) {
	summary, err := selectors.ResolveTracker(ctx, app.Store, selector)
	if err != nil {
		return nil, err
	}
	return app.Store.Load(ctx, summary.TrackerID)
}

// editTracker loads a tracker, applies fn and saves the result
func editTracker(ctx context.Context, app *appctx.App, selector string, fn func(t *domain.Tracker) error) (*domain.Tracker, error) {
	t, err := loadTracker(ctx, app, selector)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	if err := app.Store.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save tracker: %w", err)
	}
	return t, nil
}

// resolveTrackerID resolves a selector to a tracker id. When nothing
// matches, the selector token is taken as the id of a deleted tracker.
func resolveTrackerID(ctx context.Context, repo selectors.Lister, selector string) (string, error) {
	summary, err := selectors.ResolveTracker(ctx, repo, selector)
	if errors.Is(err, selectors.ErrNotFound) {
		return selectors.Parse(selector).Token, nil
	}
	if err != nil {
		return "", err
	}
	return summary.TrackerID, nil
}

// summarize returns the listing row of a tracker
func summarize(t *domain.Tracker) store.Summary {
	return store.Summary{
		TrackerID:     t.TrackerID,
		Name:          t.TrackerName,
		Archived:      t.Archived,
		SchemaVersion: t.SchemaVersion,
		LastModified:  t.LastModified,
	}
}

// formatMillis formats a unix millisecond timestamp in local time
func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format(time.DateTime)
}

// readInput reads a file argument, or stdin for "-"
func readInput(in io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to path, or to w when path is empty or "-"
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func status(archived bool) string {
	if archived {
		return "archived"
	}
	return "active"
}
