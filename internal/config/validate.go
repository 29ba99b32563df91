package config

import (
	"errors"
	"fmt"
	"strings"
)

var supportedMergeFormats = map[string]struct{}{
	"mp4":  {},
	"mkv":  {},
	"webm": {},
	"mov":  {},
	"flv":  {},
	"avi":  {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExtractor(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got %d)", c.Server.Port)
	}
	if strings.ContainsAny(c.Server.Bind, " /") {
		return fmt.Errorf("server.bind must be a host name or IP address (got %q)", c.Server.Bind)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DownloadDir == "" {
		return errors.New("paths.download_dir must be set")
	}
	return nil
}

func (c *Config) validateExtractor() error {
	switch c.Extractor.Backend {
	case BackendYtDlp, BackendYouTube:
	default:
		return fmt.Errorf("extractor.backend must be %q or %q (got %q)", BackendYtDlp, BackendYouTube, c.Extractor.Backend)
	}
	if _, ok := supportedMergeFormats[c.Extractor.MergeFormat]; !ok {
		return fmt.Errorf("extractor.merge_format %q is not a supported container", c.Extractor.MergeFormat)
	}
	if c.Extractor.TimeoutSeconds < 0 {
		return errors.New("extractor.timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}
