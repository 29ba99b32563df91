package ytnative

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kkdai/youtube/v2"

	"vidfetch/internal/extractor"
	"vidfetch/internal/formats"
	"vidfetch/internal/logging"
	"vidfetch/internal/services"
)

const componentName = "ytnative"

// ErrFormatUnavailable reports a selector none of whose alternatives resolve.
var ErrFormatUnavailable = errors.New("requested format is not available")

// videoSource is the subset of youtube.Client this backend relies on.
type videoSource interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used to reach YouTube.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.source = &youtube.Client{HTTPClient: httpClient}
		}
	}
}

// WithMuxer injects the stream merger (primarily for tests).
func WithMuxer(m Muxer) Option {
	return func(c *Client) {
		if m != nil {
			c.muxer = m
		}
	}
}

// WithMergeFormat overrides the merge container (default mp4).
func WithMergeFormat(format string) Option {
	return func(c *Client) {
		if format = strings.TrimSpace(format); format != "" {
			c.mergeFormat = format
		}
	}
}

// WithLogger attaches a logger for progress and diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, componentName)
	}
}

func withSource(source videoSource) Option {
	return func(c *Client) {
		if source != nil {
			c.source = source
		}
	}
}

// Client resolves and downloads YouTube videos without external tools. ffmpeg
// is only needed when a selector merges two streams.
type Client struct {
	source      videoSource
	muxer       Muxer
	mergeFormat string
	logger      *slog.Logger
}

var _ extractor.Extractor = (*Client)(nil)

// New constructs a native YouTube client. ffmpegBinary is used for merges.
func New(ffmpegBinary string, opts ...Option) *Client {
	client := &Client{
		source:      &youtube.Client{},
		muxer:       NewFFmpegMuxer(ffmpegBinary),
		mergeFormat: "mp4",
		logger:      logging.NewComponentLogger(nil, componentName),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name identifies the backend in status output.
func (c *Client) Name() string {
	return "youtube"
}

// FetchMetadata resolves url into the yt-dlp shaped metadata document.
func (c *Client) FetchMetadata(ctx context.Context, url string) (extractor.Metadata, error) {
	video, err := c.source.GetVideoContext(ctx, url)
	if err != nil {
		return extractor.Metadata{}, services.Fail(services.ErrExternalTool, "", fmt.Errorf("youtube metadata: %w", err))
	}

	raw := make([]formats.RawFormat, 0, len(video.Formats))
	for i := range video.Formats {
		raw = append(raw, toRawFormat(&video.Formats[i], video.Duration))
	}
	c.logger.Debug("metadata resolved",
		logging.String(logging.FieldURL, url),
		logging.Int("format_count", len(raw)),
	)
	return extractor.Metadata{
		Title:     extractor.StringPtr(video.Title),
		Thumbnail: extractor.StringPtr(largestThumbnail(video.Thumbnails)),
		Formats:   raw,
	}, nil
}

// FetchToFile downloads the first resolvable selector alternative to dest.
func (c *Client) FetchToFile(ctx context.Context, url, selector, dest string) error {
	if strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrValidation, componentName, "download", "destination path required", nil)
	}
	video, err := c.source.GetVideoContext(ctx, url)
	if err != nil {
		return services.Fail(services.ErrExternalTool, "", fmt.Errorf("youtube download: %w", err))
	}
	picked := resolve(video.Formats, selector)
	if len(picked) == 0 {
		return services.Fail(services.ErrNotFound, ErrFormatUnavailable.Error(), ErrFormatUnavailable)
	}

	logger := logging.WithContext(ctx, c.logger).With(
		logging.String(logging.FieldURL, url),
		logging.String(logging.FieldSelector, selector),
	)

	if len(picked) == 1 {
		return c.streamTo(ctx, logger, video, picked[0], dest)
	}

	parts := make([]string, 0, len(picked))
	defer func() {
		for _, part := range parts {
			_ = os.Remove(part)
		}
	}()
	for _, format := range picked {
		part := partPath(dest, format)
		parts = append(parts, part)
		if err := c.streamTo(ctx, logger, video, format, part); err != nil {
			return err
		}
	}
	if err := c.muxer.Merge(ctx, parts[0], parts[1], dest, c.mergeFormat); err != nil {
		_ = os.Remove(dest)
		return services.Fail(services.ErrExternalTool, "", fmt.Errorf("merge streams: %w", err))
	}
	logger.Debug("streams merged", logging.String("container", c.mergeFormat))
	return nil
}

func (c *Client) streamTo(ctx context.Context, logger *slog.Logger, video *youtube.Video, format *youtube.Format, dest string) error {
	stream, size, err := c.source.GetStreamContext(ctx, video, format)
	if err != nil {
		return services.Fail(services.ErrExternalTool, "", fmt.Errorf("open stream %d: %w", format.ItagNo, err))
	}
	defer stream.Close()

	file, err := os.Create(dest)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, componentName, "download", "create output", err)
	}
	progress := &progressWriter{
		logger:  logger,
		phase:   filepath.Base(dest),
		total:   size,
		sampler: logging.NewProgressSampler(25),
	}
	_, copyErr := io.Copy(io.MultiWriter(file, progress), stream)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(dest)
		if copyErr == nil {
			copyErr = closeErr
		}
		return services.Fail(services.ErrExternalTool, "", fmt.Errorf("download stream %d: %w", format.ItagNo, copyErr))
	}
	return nil
}

// partPath names the per-stream file next to dest, sharing its prefix so
// cleanup of dest's siblings catches it.
func partPath(dest string, format *youtube.Format) string {
	ext := extensionFor(mediaTypeOf(format))
	if ext == "" {
		ext = "bin"
	}
	base := strings.TrimSuffix(dest, filepath.Ext(dest))
	return fmt.Sprintf("%s.f%d.%s.part", base, format.ItagNo, ext)
}

func mediaTypeOf(format *youtube.Format) string {
	mediaType, _ := parseMimeType(format.MimeType)
	return mediaType
}

type progressWriter struct {
	logger  *slog.Logger
	phase   string
	total   int64
	written int64
	sampler *logging.ProgressSampler
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total <= 0 {
		return len(b), nil
	}
	percent := float64(p.written) / float64(p.total) * 100
	if p.sampler.ShouldLog(percent, p.phase) {
		p.logger.Debug("download progress",
			logging.String("phase", p.phase),
			logging.Float64("percent", percent),
			logging.Int64("bytes", p.written),
			logging.Int64("total_bytes", p.total),
		)
	}
	return len(b), nil
}
