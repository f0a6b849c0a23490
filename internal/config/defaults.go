package config

const (
	defaultConfigPath          = "~/.config/mpsync/config.toml"
	envFileName                = "mpsync.env"
	defaultLibraryDir          = "~/Music"
	defaultDownloadSubdir      = "playlist"
	defaultStateDir            = "~/.local/share/mpsync"
	defaultLogDir              = "~/.local/share/mpsync/logs"
	defaultYtDlpBinary         = "yt-dlp"
	defaultFpcalcBinary        = "fpcalc"
	defaultAudioFormat         = "mp3"
	defaultTrackURLTemplate    = "https://www.youtube.com/watch?v=%s"
	defaultPlaylistURLTemplate = "https://www.youtube.com/playlist?list=%s"
	defaultDownloadTimeout     = 600
	defaultFingerprintTimeout  = 120
	defaultPlaylistTimeout     = 120
	defaultNtfyTimeout         = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogMaxSizeMB        = 10
	defaultLogMaxBackups       = 5
	defaultLogRetentionDays    = 60
)

var defaultExtensions = []string{".mp3", ".m4a", ".aac", ".flac", ".ogg", ".opus", ".wav", ".wma", ".aiff", ".alac"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir:     defaultLibraryDir,
			DownloadSubdir: defaultDownloadSubdir,
			StateDir:       defaultStateDir,
			LogDir:         defaultLogDir,
		},
		Scan: Scan{
			Extensions: append([]string(nil), defaultExtensions...),
		},
		Tools: Tools{
			YtDlpBinary:         defaultYtDlpBinary,
			FpcalcBinary:        defaultFpcalcBinary,
			AudioFormat:         defaultAudioFormat,
			TrackURLTemplate:    defaultTrackURLTemplate,
			PlaylistURLTemplate: defaultPlaylistURLTemplate,
			DownloadTimeout:     defaultDownloadTimeout,
			FingerprintTimeout:  defaultFingerprintTimeout,
			PlaylistTimeout:     defaultPlaylistTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			MaxSizeMB:     defaultLogMaxSizeMB,
			MaxBackups:    defaultLogMaxBackups,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
