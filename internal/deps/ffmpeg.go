package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const ffmpegName = "ffmpeg"

// CheckFFmpegForYtDlp reports the FFmpeg binary yt-dlp will use for audio
// extraction: one sitting next to the yt-dlp executable, else "ffmpeg" on PATH.
func CheckFFmpegForYtDlp(ytdlpCommand string) Status {
	status := Status{
		Name:        "FFmpeg",
		Description: "Used by yt-dlp to extract and convert audio",
	}
	if sidecar, ok := ffmpegSidecar(strings.TrimSpace(ytdlpCommand)); ok {
		status.Command = sidecar
		status.Available = true
		return status
	}
	if resolved, err := exec.LookPath(ffmpegName); err == nil {
		status.Command = resolved
		status.Available = true
		return status
	}
	status.Command = ffmpegName
	status.Detail = fmt.Sprintf("binary %q not found", ffmpegName)
	return status
}

// ffmpegSidecar returns the executable ffmpeg in the same directory as the
// resolved yt-dlp binary.
func ffmpegSidecar(ytdlpCommand string) (string, bool) {
	if ytdlpCommand == "" {
		return "", false
	}
	resolved, err := exec.LookPath(ytdlpCommand)
	if err != nil {
		return "", false
	}
	name := ffmpegName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	candidate := filepath.Join(filepath.Dir(resolved), name)
	info, err := os.Stat(candidate)
	if err != nil || !isExecutable(info) {
		return "", false
	}
	return candidate, true
}

func isExecutable(info os.FileInfo) bool {
	if info.IsDir() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode().Perm()&0o111 != 0
}
