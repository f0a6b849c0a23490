package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mpsync/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MPSYNC_LIBRARY_DIR", "")
	t.Setenv("MPSYNC_PLAYLIST_ID", "")
	t.Setenv("MPSYNC_NTFY_TOPIC", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.LibraryDir != filepath.Join(tempHome, "Music") {
		t.Fatalf("unexpected library dir: %q", cfg.Paths.LibraryDir)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "mpsync")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.DatabasePath() != filepath.Join(wantState, "mpsync.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.DownloadDir() != filepath.Join(tempHome, "Music", "playlist") {
		t.Fatalf("unexpected download dir: %q", cfg.DownloadDir())
	}
	if cfg.Tools.AudioFormat != "mp3" {
		t.Fatalf("unexpected audio format: %q", cfg.Tools.AudioFormat)
	}
	if cfg.Playlist.ID != "" {
		t.Fatalf("expected no default playlist, got %q", cfg.Playlist.ID)
	}
	if _, ok := cfg.AudioExtensions()[".flac"]; !ok {
		t.Fatal("expected .flac in default extensions")
	}

	if err := os.MkdirAll(cfg.Paths.LibraryDir, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.DownloadDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestEnsureDirectoriesDoesNotCreateLibrary(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "missing-library")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.LibraryDir); !os.IsNotExist(err) {
		t.Fatalf("expected library dir to stay absent, stat err=%v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mpsync.toml")
	t.Setenv("MPSYNC_LIBRARY_DIR", "")

	type payload struct {
		Paths struct {
			LibraryDir     string `toml:"library_dir"`
			DownloadSubdir string `toml:"download_subdir"`
		} `toml:"paths"`
		Scan struct {
			Extensions []string `toml:"extensions"`
		} `toml:"scan"`
		Tools struct {
			AudioFormat     string `toml:"audio_format"`
			DownloadTimeout int    `toml:"download_timeout"`
		} `toml:"tools"`
	}
	custom := payload{}
	custom.Paths.LibraryDir = filepath.Join(tempDir, "music")
	custom.Paths.DownloadSubdir = "./synced/yt"
	custom.Scan.Extensions = []string{"MP3", ".flac", "mp3", " "}
	custom.Tools.AudioFormat = ".OPUS"
	custom.Tools.DownloadTimeout = 30
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.DownloadSubdir != "synced/yt" {
		t.Fatalf("unexpected download subdir: %q", cfg.Paths.DownloadSubdir)
	}
	if got := strings.Join(cfg.Scan.Extensions, ","); got != ".mp3,.flac" {
		t.Fatalf("unexpected extensions: %q", got)
	}
	if cfg.Tools.AudioFormat != "opus" {
		t.Fatalf("expected audio format opus, got %q", cfg.Tools.AudioFormat)
	}
	if cfg.DownloadTimeout().Seconds() != 30 {
		t.Fatalf("unexpected download timeout: %v", cfg.DownloadTimeout())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mpsync.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\nlibary_dir = \"/tmp\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestEnvVarFallbacks(t *testing.T) {
	library := t.TempDir()
	t.Setenv("MPSYNC_LIBRARY_DIR", library)
	t.Setenv("MPSYNC_PLAYLIST_ID", " PLenv ")
	t.Setenv("MPSYNC_NTFY_TOPIC", "https://ntfy.example/mpsync")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.LibraryDir != library {
		t.Errorf("expected library dir from env, got %q", cfg.Paths.LibraryDir)
	}
	if cfg.Playlist.ID != "PLenv" {
		t.Errorf("expected playlist id from env, got %q", cfg.Playlist.ID)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/mpsync" {
		t.Errorf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "download_subdir") {
		t.Fatalf("sample config missing download_subdir: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Tools.YtDlpBinary != "yt-dlp" {
		t.Fatalf("expected yt-dlp binary in sample, got %q", cfg.Tools.YtDlpBinary)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero download timeout", func(c *config.Config) { c.Tools.DownloadTimeout = 0 }},
		{"negative fingerprint timeout", func(c *config.Config) { c.Tools.FingerprintTimeout = -1 }},
		{"track template without placeholder", func(c *config.Config) { c.Tools.TrackURLTemplate = "https://example.com" }},
		{"playlist template with two placeholders", func(c *config.Config) { c.Tools.PlaylistURLTemplate = "%s/%s" }},
		{"download subdir escapes library", func(c *config.Config) { c.Paths.DownloadSubdir = "../elsewhere" }},
		{"download subdir is library root", func(c *config.Config) { c.Paths.DownloadSubdir = "." }},
		{"empty library", func(c *config.Config) { c.Paths.LibraryDir = "" }},
		{"no extensions", func(c *config.Config) { c.Scan.Extensions = nil }},
		{"bad level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"ntfy topic without scheme", func(c *config.Config) { c.Notifications.NtfyTopic = "ntfy.sh/topic" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadReadsEnvFileNextToConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[playlist]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	library := filepath.Join(dir, "music")
	env := "MPSYNC_LIBRARY_DIR=" + library + "\nMPSYNC_PLAYLIST_ID=PLdotenv\n"
	if err := os.WriteFile(filepath.Join(dir, "mpsync.env"), []byte(env), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// Register restore, then unset so the env file is allowed to supply them.
	t.Setenv("MPSYNC_LIBRARY_DIR", "")
	t.Setenv("MPSYNC_PLAYLIST_ID", "")
	os.Unsetenv("MPSYNC_LIBRARY_DIR")
	os.Unsetenv("MPSYNC_PLAYLIST_ID")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.LibraryDir != library {
		t.Fatalf("expected library dir from env file, got %q", cfg.Paths.LibraryDir)
	}
	if cfg.Playlist.ID != "PLdotenv" {
		t.Fatalf("expected playlist id from env file, got %q", cfg.Playlist.ID)
	}
}

func TestEnvironmentOverridesEnvFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(filepath.Join(dir, "mpsync.env"), []byte("MPSYNC_PLAYLIST_ID=PLfile\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("MPSYNC_PLAYLIST_ID", "PLshell")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Playlist.ID != "PLshell" {
		t.Fatalf("expected shell environment to win, got %q", cfg.Playlist.ID)
	}
}
