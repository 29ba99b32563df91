package config

const (
	defaultConfigPath      = "~/.config/vidfetch/config.toml"
	defaultBind            = "127.0.0.1"
	defaultPort            = 5000
	defaultDownloadDir     = "~/.local/share/vidfetch/downloads"
	defaultLogDir          = "~/.local/share/vidfetch/logs"
	defaultBackend         = BackendYtDlp
	defaultYtDlpBinary     = "yt-dlp"
	defaultFFmpegBinary    = "ffmpeg"
	defaultMergeFormat     = "mp4"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultLogRetentionDay = 30
)

// Supported extractor backends.
const (
	BackendYtDlp   = "ytdlp"
	BackendYouTube = "youtube"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind: defaultBind,
			Port: defaultPort,
		},
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
		},
		Extractor: Extractor{
			Backend:      defaultBackend,
			YtDlpBinary:  defaultYtDlpBinary,
			FFmpegBinary: defaultFFmpegBinary,
			MergeFormat:  defaultMergeFormat,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDay,
		},
	}
}
