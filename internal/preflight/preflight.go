package preflight

import (
	"context"

	"mpsync/internal/config"
	"mpsync/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks and probes each tool's version.
// A nil executor runs the real binaries.
func RunAll(ctx context.Context, cfg *config.Config, exec services.Executor) []Result {
	if cfg == nil {
		return nil
	}
	if exec == nil {
		exec = services.CommandExecutor{}
	}

	return []Result{
		CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir),
		CheckDirectoryAccess("Download directory", cfg.DownloadDir()),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckToolVersion(ctx, exec, "yt-dlp version", cfg.Tools.YtDlpBinary, "--version"),
		CheckToolVersion(ctx, exec, "fpcalc version", cfg.Tools.FpcalcBinary, "-version"),
	}
}
