// Package deps reports whether the external tools mpsync shells out to
// (yt-dlp, fpcalc and the ffmpeg yt-dlp needs) can be found.
package deps
