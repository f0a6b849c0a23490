package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryDir     string `toml:"library_dir"`
	DownloadSubdir string `toml:"download_subdir"`
	StateDir       string `toml:"state_dir"`
	LogDir         string `toml:"log_dir"`
}

// Playlist holds the default playlist used when none is given or stored.
type Playlist struct {
	ID string `toml:"id"`
}

// Scan controls which files the library scanner treats as audio.
type Scan struct {
	Extensions []string `toml:"extensions"`
}

// Tools contains settings for the external yt-dlp and fpcalc collaborators.
type Tools struct {
	YtDlpBinary         string `toml:"ytdlp_binary"`
	FpcalcBinary        string `toml:"fpcalc_binary"`
	AudioFormat         string `toml:"audio_format"`
	TrackURLTemplate    string `toml:"track_url_template"`
	PlaylistURLTemplate string `toml:"playlist_url_template"`
	DownloadTimeout     int    `toml:"download_timeout"`
	FingerprintTimeout  int    `toml:"fingerprint_timeout"`
	PlaylistTimeout     int    `toml:"playlist_timeout"`
}

// Notifications configures the optional ntfy push after each run.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	MaxSizeMB     int    `toml:"max_size_mb"`
	MaxBackups    int    `toml:"max_backups"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for mpsync.
//
// Configuration sections by subsystem:
//   - Paths: library root, managed download folder, state and log directories
//   - Playlist: fallback playlist identifier
//   - Scan: audio file extensions considered by the library scanner
//   - Tools: yt-dlp and fpcalc binaries, URL templates and timeouts
//   - Notifications: optional ntfy topic for run results
//   - Logging: log format, level and file rotation
type Config struct {
	Paths         Paths         `toml:"paths"`
	Playlist      Playlist      `toml:"playlist"`
	Scan          Scan          `toml:"scan"`
	Tools         Tools         `toml:"tools"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := loadEnvFile(resolvedPath); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mpsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// loadEnvFile exports variables from mpsync.env next to the config file.
// Variables already set in the environment win.
func loadEnvFile(configPath string) error {
	envPath := filepath.Join(filepath.Dir(configPath), envFileName)
	if _, err := os.Stat(envPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("load env file %s: %w", envPath, err)
	}
	return nil
}

// EnsureDirectories creates the state, log and managed download directories.
// The library root itself must already exist; it is never created here.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if info, err := os.Stat(c.Paths.LibraryDir); err == nil && info.IsDir() {
		if err := os.MkdirAll(c.DownloadDir(), 0o755); err != nil {
			return fmt.Errorf("create download directory %q: %w", c.DownloadDir(), err)
		}
	}
	return nil
}

// DownloadDir returns the absolute path of the managed download subfolder.
func (c *Config) DownloadDir() string {
	return filepath.Join(c.Paths.LibraryDir, filepath.FromSlash(c.Paths.DownloadSubdir))
}

// DatabasePath returns the location of the record store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "mpsync.db")
}

// LockPath returns the location of the single-run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "mpsync.lock")
}

// LogPath returns the location of the rotating log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "mpsync.log")
}

// DownloadTimeout returns the per-track download timeout.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Tools.DownloadTimeout) * time.Second
}

// FingerprintTimeout returns the per-file fingerprint timeout.
func (c *Config) FingerprintTimeout() time.Duration {
	return time.Duration(c.Tools.FingerprintTimeout) * time.Second
}

// PlaylistTimeout returns the playlist resolution timeout.
func (c *Config) PlaylistTimeout() time.Duration {
	return time.Duration(c.Tools.PlaylistTimeout) * time.Second
}

// NotificationTimeout returns the ntfy request timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// AudioExtensions returns the configured extensions as a lookup set.
func (c *Config) AudioExtensions() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		set[ext] = struct{}{}
	}
	return set
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
