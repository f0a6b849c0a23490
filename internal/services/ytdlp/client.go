package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mpsync/internal/config"
	"mpsync/internal/services"
)

// Settings captures the yt-dlp invocation parameters.
type Settings struct {
	Binary              string
	OutputDir           string
	AudioFormat         string
	TrackURLTemplate    string
	PlaylistURLTemplate string
	DownloadTimeout     time.Duration
	PlaylistTimeout     time.Duration
}

// SettingsFromConfig derives Settings from the application configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Binary:              cfg.Tools.YtDlpBinary,
		OutputDir:           cfg.DownloadDir(),
		AudioFormat:         cfg.Tools.AudioFormat,
		TrackURLTemplate:    cfg.Tools.TrackURLTemplate,
		PlaylistURLTemplate: cfg.Tools.PlaylistURLTemplate,
		DownloadTimeout:     cfg.DownloadTimeout(),
		PlaylistTimeout:     cfg.PlaylistTimeout(),
	}
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	settings Settings
	exec     services.Executor
}

// New constructs a yt-dlp client.
func New(settings Settings, opts ...Option) (*Client, error) {
	settings.Binary = strings.TrimSpace(settings.Binary)
	if settings.Binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	if strings.TrimSpace(settings.OutputDir) == "" {
		return nil, errors.New("download directory required")
	}
	settings.AudioFormat = strings.TrimPrefix(strings.TrimSpace(settings.AudioFormat), ".")
	if settings.AudioFormat == "" {
		return nil, errors.New("audio format required")
	}
	client := &Client{
		settings: settings,
		exec:     services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// OutputPath returns where Download places the track with remoteID.
func (c *Client) OutputPath(remoteID string) (string, error) {
	name := SanitizeID(remoteID)
	if name == "" {
		return "", fmt.Errorf("remote id %q has no usable characters", remoteID)
	}
	return filepath.Join(c.settings.OutputDir, name+"."+c.settings.AudioFormat), nil
}

// Download fetches the track and converts it to the configured audio format.
func (c *Client) Download(ctx context.Context, remoteID string) (string, error) {
	target, err := c.OutputPath(remoteID)
	if err != nil {
		return "", services.Wrap(services.ErrDownload, "download", remoteID, "", err)
	}
	if err := os.MkdirAll(c.settings.OutputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrDownload, "download", remoteID, "create download directory", err)
	}

	// A file already at target belongs to the library (a leftover the scanner
	// may have indexed); failures only clean up what this call created.
	_, statErr := os.Stat(target)
	preexisting := statErr == nil

	runCtx := ctx
	if c.settings.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.settings.DownloadTimeout)
		defer cancel()
	}

	outputTemplate := strings.TrimSuffix(target, "."+c.settings.AudioFormat) + ".%(ext)s"
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--quiet",
		"-x",
		"--audio-format", c.settings.AudioFormat,
		"-o", outputTemplate,
		fmt.Sprintf(c.settings.TrackURLTemplate, remoteID),
	}
	if _, err := c.exec.Output(runCtx, c.settings.Binary, args); err != nil {
		removePartial(target, preexisting)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", services.Wrap(services.ErrDownload, "download", remoteID, "yt-dlp", err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return "", services.Wrap(services.ErrDownload, "download", remoteID, "yt-dlp did not produce "+filepath.Base(target), err)
	}
	if info.Size() == 0 {
		removePartial(target, preexisting)
		return "", services.Wrap(services.ErrDownload, "download", remoteID, "yt-dlp produced an empty file", nil)
	}
	return target, nil
}

// removePartial drops yt-dlp's .part file and, unless it was there before
// the download started, the output file.
func removePartial(target string, preexisting bool) {
	_ = os.Remove(target + ".part")
	if !preexisting {
		_ = os.Remove(target)
	}
}

// SanitizeID maps a remote id onto a safe file stem.
func SanitizeID(remoteID string) string {
	remoteID = strings.TrimSpace(remoteID)
	var b strings.Builder
	b.Grow(len(remoteID))
	for _, r := range remoteID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	result := b.String()
	if strings.Trim(result, "_") == "" {
		return ""
	}
	return result
}
