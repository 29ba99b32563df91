package main

import (
	"fmt"
	"log/slog"

	"vidfetch/internal/config"
	"vidfetch/internal/deps"
	"vidfetch/internal/extractor"
	"vidfetch/internal/services/ytdlp"
	"vidfetch/internal/services/ytnative"
)

// newExtractor builds the backend selected by extractor.backend.
func newExtractor(cfg *config.Config, logger *slog.Logger) (extractor.Extractor, error) {
	switch cfg.Extractor.Backend {
	case config.BackendYtDlp:
		opts := []ytdlp.Option{
			ytdlp.WithMergeFormat(cfg.Extractor.MergeFormat),
			ytdlp.WithLogger(logger),
		}
		if location := deps.ResolveFFmpeg(cfg.Extractor.FFmpegBinary, cfg.Extractor.YtDlpBinary); location != "ffmpeg" {
			opts = append(opts, ytdlp.WithFFmpegLocation(location))
		}
		client, err := ytdlp.New(cfg.Extractor.YtDlpBinary, cfg.Extractor.TimeoutSeconds, opts...)
		if err != nil {
			return nil, fmt.Errorf("init yt-dlp backend: %w", err)
		}
		return client, nil
	case config.BackendYouTube:
		return ytnative.New(cfg.Extractor.FFmpegBinary,
			ytnative.WithMergeFormat(cfg.Extractor.MergeFormat),
			ytnative.WithLogger(logger),
		), nil
	default:
		return nil, fmt.Errorf("extractor.backend: unsupported value %q", cfg.Extractor.Backend)
	}
}

func backendName(ext extractor.Extractor, cfg *config.Config) string {
	if named, ok := ext.(extractor.Named); ok {
		return named.Name()
	}
	return cfg.Extractor.Backend
}
