// Package snapshot provides canonical JSON snapshots of a tracker.
//
// A canonical snapshot is a deterministic encoding of a tracker's state:
// collections sorted by id, clicks newest first, the change log oldest first
// and object keys sorted lexicographically. Two devices that converged to
// the same state produce byte-identical canonical snapshots and therefore
// the same snapshot revision.
package snapshot

// ExportOptions configures snapshot export behavior.
type ExportOptions struct {
	// OutputPath is the file to write to (default: <trackerId>.json)
	OutputPath string
	// Canonical writes the canonical encoding instead of indented JSON
	Canonical bool
}

// ExportResult contains the result of an export operation.
type ExportResult struct {
	OutputPath  string `json:"out"`
	TrackerID   string `json:"tracker_id"`
	SnapshotRev string `json:"snapshot_rev"`
	Screens     int    `json:"screens"`
	Buttons     int    `json:"buttons"`
	Clicks      int    `json:"clicks"`
	Changes     int    `json:"changes"`
}

// VerifyResult contains the result of a verify operation.
type VerifyResult struct {
	InputPath   string `json:"input,omitempty"`
	TrackerID   string `json:"tracker_id"`
	Valid       bool   `json:"valid"`
	Canonical   bool   `json:"canonical"`
	SnapshotRev string `json:"snapshot_rev"`
	Message     string `json:"message,omitempty"`
}

// DefaultExtension is appended to the tracker id when no output path is given.
const DefaultExtension = ".json"
