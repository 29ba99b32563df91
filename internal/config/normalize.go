package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtractor()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if value, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(value) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("PORT: invalid port %q", value)
		}
		c.Server.Port = port
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExtractor() {
	c.Extractor.Backend = strings.ToLower(strings.TrimSpace(c.Extractor.Backend))
	switch c.Extractor.Backend {
	case "", "yt-dlp", "yt_dlp":
		c.Extractor.Backend = BackendYtDlp
	case "native", "kkdai":
		c.Extractor.Backend = BackendYouTube
	}
	c.Extractor.YtDlpBinary = strings.TrimSpace(c.Extractor.YtDlpBinary)
	if c.Extractor.YtDlpBinary == "" {
		c.Extractor.YtDlpBinary = defaultYtDlpBinary
	}
	c.Extractor.FFmpegBinary = strings.TrimSpace(c.Extractor.FFmpegBinary)
	if c.Extractor.FFmpegBinary == "" {
		c.Extractor.FFmpegBinary = defaultFFmpegBinary
	}
	c.Extractor.MergeFormat = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Extractor.MergeFormat), "."))
	if c.Extractor.MergeFormat == "" {
		c.Extractor.MergeFormat = defaultMergeFormat
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
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
