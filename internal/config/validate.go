package config

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set (or export MPSYNC_LIBRARY_DIR)")
	}
	sub := c.Paths.DownloadSubdir
	if sub == "." || path.IsAbs(sub) || sub == ".." || strings.HasPrefix(sub, "../") {
		return fmt.Errorf("paths.download_subdir must be a folder inside the library, got %q", sub)
	}
	return nil
}

func (c *Config) validateScan() error {
	if len(c.Scan.Extensions) == 0 {
		return errors.New("scan.extensions must include at least one extension")
	}
	return nil
}

func (c *Config) validateTools() error {
	if err := ensurePositiveMap(map[string]int{
		"tools.download_timeout":    c.Tools.DownloadTimeout,
		"tools.fingerprint_timeout": c.Tools.FingerprintTimeout,
		"tools.playlist_timeout":    c.Tools.PlaylistTimeout,
	}); err != nil {
		return err
	}
	if strings.Count(c.Tools.TrackURLTemplate, "%s") != 1 {
		return errors.New("tools.track_url_template must contain exactly one %s placeholder")
	}
	if strings.Count(c.Tools.PlaylistURLTemplate, "%s") != 1 {
		return errors.New("tools.playlist_url_template must contain exactly one %s placeholder")
	}
	if strings.ContainsAny(c.Tools.AudioFormat, `/\ `) {
		return fmt.Errorf("tools.audio_format %q is not a valid file extension", c.Tools.AudioFormat)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
