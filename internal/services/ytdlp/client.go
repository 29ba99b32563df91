package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"vidfetch/internal/extractor"
	"vidfetch/internal/formats"
	"vidfetch/internal/logging"
	"vidfetch/internal/services"
)

const componentName = "ytdlp"

// Executor abstracts command execution for testability. Each callback receives
// one line of the corresponding stream without its trailing newline.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout, onStderr func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithFFmpegLocation points yt-dlp at a specific ffmpeg binary for merges.
func WithFFmpegLocation(path string) Option {
	return func(c *Client) {
		c.ffmpeg = strings.TrimSpace(path)
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

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary      string
	ffmpeg      string
	mergeFormat string
	timeout     time.Duration
	exec        Executor
	logger      *slog.Logger
}

var _ extractor.Extractor = (*Client)(nil)

// New constructs a yt-dlp client. A zero timeout leaves calls unbounded.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, componentName, "init", "yt-dlp binary required", nil)
	}
	client := &Client{
		binary:      binary,
		mergeFormat: "mp4",
		timeout:     time.Duration(timeoutSeconds) * time.Second,
		exec:        commandExecutor{},
		logger:      logging.NewComponentLogger(nil, componentName),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the backend in status output.
func (c *Client) Name() string {
	return "yt-dlp"
}

type metadataPayload struct {
	Type      string              `json:"_type"`
	Title     *string             `json:"title"`
	Thumbnail *string             `json:"thumbnail"`
	Formats   []formats.RawFormat `json:"formats"`
}

// FetchMetadata resolves url without downloading anything.
func (c *Client) FetchMetadata(ctx context.Context, url string) (extractor.Metadata, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	args := []string{"--dump-single-json", "--no-warnings", "--no-playlist", "--", url}
	var stdout bytes.Buffer
	stderr := &stderrCollector{}
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		stdout.WriteString(line)
		stdout.WriteByte('\n')
	}, stderr.add)
	if err != nil {
		return extractor.Metadata{}, c.failure(ctx, "metadata", stderr, err)
	}

	var payload metadataPayload
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &payload); err != nil {
		return extractor.Metadata{}, services.Wrap(services.ErrExternalTool, componentName, "metadata", "decode yt-dlp output", err)
	}
	if payload.Formats == nil {
		payload.Formats = []formats.RawFormat{}
	}
	c.logger.Debug("metadata resolved",
		logging.String(logging.FieldURL, url),
		logging.Int("format_count", len(payload.Formats)),
		logging.String("type", payload.Type),
	)
	return extractor.Metadata{
		Title:     payload.Title,
		Thumbnail: payload.Thumbnail,
		Formats:   payload.Formats,
	}, nil
}

// FetchToFile downloads the selector's media to dest. Separate streams are
// merged into the configured container.
func (c *Client) FetchToFile(ctx context.Context, url, selector, dest string) error {
	if strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrValidation, componentName, "download", "destination path required", nil)
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	args := []string{
		"--no-playlist",
		"--newline",
		"--format", selector,
		"--merge-output-format", c.mergeFormat,
		"--output", dest,
	}
	if c.ffmpeg != "" {
		args = append(args, "--ffmpeg-location", c.ffmpeg)
	}
	args = append(args, "--", url)

	logger := logging.WithContext(ctx, c.logger).With(
		logging.String(logging.FieldURL, url),
		logging.String(logging.FieldSelector, selector),
	)
	sampler := logging.NewProgressSampler(25)
	phase := "download"
	stderr := &stderrCollector{}
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		if target, ok := parseDestination(line); ok {
			phase = target
			return
		}
		update, ok := parseProgress(line)
		if !ok || !sampler.ShouldLog(update.Percent, phase) {
			return
		}
		logger.Debug("download progress",
			logging.String("phase", phase),
			logging.Float64("percent", update.Percent),
			logging.String("total", update.Total),
			logging.String("speed", update.Speed),
		)
	}, stderr.add)
	if err != nil {
		return c.failure(ctx, "download", stderr, err)
	}
	return nil
}

// Version reports the yt-dlp version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var version string
	stderr := &stderrCollector{}
	err := c.exec.Run(ctx, c.binary, []string{"--version"}, func(line string) {
		if version == "" {
			version = strings.TrimSpace(line)
		}
	}, stderr.add)
	if err != nil {
		return "", c.failure(ctx, "version", stderr, err)
	}
	if version == "" {
		return "", services.Wrap(services.ErrExternalTool, componentName, "version", "empty version output", nil)
	}
	return version, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// failure converts a failed run into an error whose text is yt-dlp's own
// diagnostic.
func (c *Client) failure(ctx context.Context, operation string, stderr *stderrCollector, err error) error {
	marker := services.ErrExternalTool
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		marker = services.ErrTimeout
	}
	message := stderr.message()
	if message == "" && marker == services.ErrTimeout {
		message = fmt.Sprintf("yt-dlp %s timed out after %s", operation, c.timeout)
	}
	return services.Fail(marker, message, fmt.Errorf("yt-dlp %s: %w", operation, err))
}

type stderrCollector struct {
	errors []string
	last   string
}

func (s *stderrCollector) add(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	if strings.HasPrefix(line, "ERROR:") {
		s.errors = append(s.errors, line)
	}
	s.last = line
}

// message prefers yt-dlp's ERROR lines, then its last stderr line.
func (s *stderrCollector) message() string {
	if len(s.errors) > 0 {
		return strings.Join(s.errors, "\n")
	}
	return s.last
}

// ProgressUpdate is one parsed "[download]" progress line.
type ProgressUpdate struct {
	Percent float64
	Total   string
	Speed   string
}

var (
	progressPattern    = regexp.MustCompile(`^\[download\]\s+([0-9.]+)%(?:\s+of\s+~?\s*(\S+))?(?:\s+at\s+(\S+))?`)
	destinationPattern = regexp.MustCompile(`^\[download\] Destination: (.+)$`)
)

func parseProgress(line string) (ProgressUpdate, bool) {
	match := progressPattern.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil {
		return ProgressUpdate{}, false
	}
	percent, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return ProgressUpdate{}, false
	}
	return ProgressUpdate{Percent: percent, Total: match[2], Speed: match[3]}, true
}

func parseDestination(line string) (string, bool) {
	match := destinationPattern.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil {
		return "", false
	}
	return match[1], true
}
