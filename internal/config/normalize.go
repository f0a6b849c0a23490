package config

import (
	"fmt"
	"os"
	"path"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePlaylist()
	c.normalizeScan()
	c.normalizeTools()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("MPSYNC_LIBRARY_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.LibraryDir = strings.TrimSpace(value)
	}
	if c.Paths.LibraryDir, err = expandPath(strings.TrimSpace(c.Paths.LibraryDir)); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	// The managed folder is stored slash-separated and relative to the library root.
	subdir := strings.ReplaceAll(strings.TrimSpace(c.Paths.DownloadSubdir), "\\", "/")
	if subdir == "" {
		subdir = defaultDownloadSubdir
	}
	c.Paths.DownloadSubdir = path.Clean(strings.TrimPrefix(subdir, "./"))
	return nil
}

func (c *Config) normalizePlaylist() {
	c.Playlist.ID = strings.TrimSpace(c.Playlist.ID)
	if c.Playlist.ID == "" {
		if value, ok := os.LookupEnv("MPSYNC_PLAYLIST_ID"); ok {
			c.Playlist.ID = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeScan() {
	if len(c.Scan.Extensions) == 0 {
		c.Scan.Extensions = append([]string(nil), defaultExtensions...)
		return
	}
	exts := make([]string, 0, len(c.Scan.Extensions))
	seen := make(map[string]struct{}, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	c.Scan.Extensions = exts
}

func (c *Config) normalizeTools() {
	c.Tools.YtDlpBinary = strings.TrimSpace(c.Tools.YtDlpBinary)
	if c.Tools.YtDlpBinary == "" {
		c.Tools.YtDlpBinary = defaultYtDlpBinary
	}
	c.Tools.FpcalcBinary = strings.TrimSpace(c.Tools.FpcalcBinary)
	if c.Tools.FpcalcBinary == "" {
		c.Tools.FpcalcBinary = defaultFpcalcBinary
	}
	c.Tools.AudioFormat = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Tools.AudioFormat), "."))
	if c.Tools.AudioFormat == "" {
		c.Tools.AudioFormat = defaultAudioFormat
	}
	c.Tools.TrackURLTemplate = strings.TrimSpace(c.Tools.TrackURLTemplate)
	if c.Tools.TrackURLTemplate == "" {
		c.Tools.TrackURLTemplate = defaultTrackURLTemplate
	}
	c.Tools.PlaylistURLTemplate = strings.TrimSpace(c.Tools.PlaylistURLTemplate)
	if c.Tools.PlaylistURLTemplate == "" {
		c.Tools.PlaylistURLTemplate = defaultPlaylistURLTemplate
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("MPSYNC_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
