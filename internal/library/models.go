package library

import "time"

// SongRecord is one tracked audio file.
type SongRecord struct {
	ID          int64
	LocalPath   string
	Fingerprint string
	// RemoteID is empty while the record is known locally but not yet linked
	// to a playlist track.
	RemoteID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Linked reports whether the record satisfies a playlist track.
func (r SongRecord) Linked() bool {
	return r.RemoteID != ""
}

// Stats summarizes the ledger.
type Stats struct {
	Total    int `json:"total"`
	Linked   int `json:"linked"`
	Unlinked int `json:"unlinked"`
}
