package reconcile

import "context"

// Fingerprinter computes the acoustic fingerprint of an audio file.
type Fingerprinter interface {
	Compute(ctx context.Context, path string) (string, error)
}

// Downloader materializes a playlist track as an audio file and returns its
// absolute path inside the managed download folder.
type Downloader interface {
	Download(ctx context.Context, remoteID string) (string, error)
}

// PlaylistResolver lists the track identifiers of a playlist in order.
type PlaylistResolver interface {
	Resolve(ctx context.Context, playlistID string) ([]string, error)
}

// Collaborators bundles the external tools the pipeline depends on.
type Collaborators struct {
	Fingerprinter Fingerprinter
	Downloader    Downloader
	Resolver      PlaylistResolver
}
