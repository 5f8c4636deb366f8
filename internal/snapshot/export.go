package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lherron/wilds/internal/domain"
)

// Export writes a tracker to a JSON file and reports its snapshot revision.
// The revision is always computed from the canonical encoding, whichever
// encoding is written.
func Export(t *domain.Tracker, opts ExportOptions) (*ExportResult, error) {
	if opts.OutputPath == "" {
		opts.OutputPath = t.TrackerID + DefaultExtension
	}

	canonical, err := CanonicalJSON(t)
	if err != nil {
		return nil, fmt.Errorf("failed to generate canonical JSON: %w", err)
	}

	data := canonical
	if !opts.Canonical {
		data, err = PrettyJSON(t)
		if err != nil {
			return nil, fmt.Errorf("failed to generate JSON: %w", err)
		}
	}

	// Ensure output directory exists
	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	result := &ExportResult{
		OutputPath:  opts.OutputPath,
		TrackerID:   t.TrackerID,
		SnapshotRev: ComputeRev(canonical),
		Screens:     len(t.Screens),
		Changes:     len(t.ChangeLog),
	}
	for _, s := range t.Screens {
		result.Buttons += len(s.Buttons)
		for _, b := range s.Buttons {
			result.Clicks += len(b.Clicks)
		}
	}

	return result, nil
}

// Load reads and parses a tracker JSON file.
func Load(path string) (*domain.Tracker, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var t domain.Tracker
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return &t, data, nil
}

// Verify validates a decoded tracker and checks whether raw, the bytes it
// was decoded from, already is its canonical encoding. An invalid tracker
// is reported through the result, not the error.
func Verify(t *domain.Tracker, raw []byte) (*VerifyResult, error) {
	canonical, err := CanonicalJSON(t)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{
		TrackerID:   t.TrackerID,
		Valid:       true,
		SnapshotRev: ComputeRev(canonical),
	}

	if err := domain.ValidateTracker(t); err != nil {
		result.Valid = false
		result.Message = err.Error()
		return result, nil
	}

	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, canonical) {
		result.Canonical = true
		result.Message = "snapshot is canonical"
	} else {
		result.Message = "not canonical: " + findFirstDiff(string(trimmed), string(canonical))
	}

	return result, nil
}

func findFirstDiff(a, b string) string {
	minLen := min(len(a), len(b))

	for i := 0; i < minLen; i++ {
		if a[i] != b[i] {
			start := max(i-20, 0)
			end := min(i+20, minLen)
			return fmt.Sprintf("difference at byte %d: ...%s... vs ...%s...",
				i, strings.ReplaceAll(a[start:end], "\n", "\\n"),
				strings.ReplaceAll(b[start:end], "\n", "\\n"))
		}
	}

	if len(a) != len(b) {
		return fmt.Sprintf("length mismatch: %d vs %d", len(a), len(b))
	}

	return "unknown difference"
}
