// Package ytdlp drives the yt-dlp CLI for the two remote operations the sync
// phase needs: resolving a playlist into its ordered track identifiers and
// downloading one track as an audio file.
//
// Downloads land at a deterministic location, <output dir>/<id>.<format>, so a
// re-run that downloads the same track overwrites rather than accumulates.
// Errors carry services.ErrPlaylistResolution or services.ErrDownload.
package ytdlp
