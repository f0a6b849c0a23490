package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"mpsync/internal/config"
	"mpsync/internal/deps"
	"mpsync/internal/services"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckToolVersion runs binary with versionFlag and reports the first line of
// its output. It uses a 10-second timeout.
func CheckToolVersion(ctx context.Context, exec services.Executor, name, binary, versionFlag string) Result {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return Result{Name: name, Detail: "command not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.Output(checkCtx, binary, []string{versionFlag})
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("version check failed (%v)", err)}
	}
	version := strings.TrimSpace(strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0])
	if version == "" {
		version = "unknown"
	}
	return Result{Name: name, Passed: true, Detail: version}
}

// CheckSystemDeps evaluates all external tools for the given config. Both
// `mpsync sync` and `mpsync doctor` use this to avoid duplicating the
// requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Tools.YtDlpBinary,
			Description: "Required to resolve playlists and download tracks",
		},
		{
			Name:        "fpcalc",
			Command:     cfg.Tools.FpcalcBinary,
			Description: "Required to fingerprint audio (Chromaprint)",
		},
	}
	statuses := deps.CheckBinaries(requirements)
	return append(statuses, deps.CheckFFmpegForYtDlp(cfg.Tools.YtDlpBinary))
}
