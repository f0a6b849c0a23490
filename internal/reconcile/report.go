package reconcile

import "time"

// Phase names stamped onto contexts and log lines.
const (
	PhaseVerify = "verify"
	PhaseScan   = "scan"
	PhaseSync   = "sync"
)

// VerifyReport summarizes the verify phase.
type VerifyReport struct {
	Checked    int `json:"checked"`
	Pruned     int `json:"pruned"`
	Unreadable int `json:"unreadable"`
}

// ScanReport summarizes the scan phase.
type ScanReport struct {
	Scanned    int `json:"scanned"`
	Tracked    int `json:"tracked"`
	Indexed    int `json:"indexed"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// SyncReport summarizes the sync phase.
type SyncReport struct {
	PlaylistSize int `json:"playlist_size"`
	Pending      int `json:"pending"`
	Downloaded   int `json:"downloaded"`
	Claimed      int `json:"claimed"`
	Inserted     int `json:"inserted"`
	Replaced     int `json:"replaced"`
	Duplicates   int `json:"duplicates"`
	Failed       int `json:"failed"`
}

// RunSummary collects the outcome of one pipeline run. Reports of phases
// that did not complete keep the counts reached before the failure.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	PlaylistID string        `json:"playlist_id"`
	Verify     VerifyReport  `json:"verify"`
	Scan       ScanReport    `json:"scan"`
	Sync       SyncReport    `json:"sync"`
	Completed  []string      `json:"completed_phases"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}
