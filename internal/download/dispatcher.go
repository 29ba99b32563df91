package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"vidfetch/internal/extractor"
	"vidfetch/internal/logging"
	"vidfetch/internal/services"
)

// MissingDataMessage is the validation reply when url or format_id is absent.
const MissingDataMessage = "Missing data"

// Request is one download as submitted by a client.
type Request struct {
	URL      string
	FormatID string
	Hint     StreamHint
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithContainer sets the merge container used for non-audio transients.
func WithContainer(container string) Option {
	return func(d *Dispatcher) {
		if container = strings.TrimSpace(container); container != "" {
			d.container = container
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logging.NewComponentLogger(logger, "download")
	}
}

// Dispatcher turns a download request into a finished transient file.
type Dispatcher struct {
	extractor extractor.Extractor
	dir       string
	container string
	logger    *slog.Logger
}

// NewDispatcher writes transients into dir using ext.
func NewDispatcher(ext extractor.Extractor, dir string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		extractor: ext,
		dir:       dir,
		container: "mp4",
		logger:    logging.NewComponentLogger(nil, "download"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dir reports where transients are written.
func (d *Dispatcher) Dir() string {
	return d.dir
}

// Fetch downloads req into a fresh transient. On success the caller owns the
// transient and must Release it; on failure nothing is left on disk.
func (d *Dispatcher) Fetch(ctx context.Context, req Request) (*Transient, error) {
	req.URL = strings.TrimSpace(req.URL)
	req.FormatID = strings.TrimSpace(req.FormatID)
	if req.URL == "" || req.FormatID == "" {
		return nil, services.Fail(services.ErrValidation, MissingDataMessage, nil)
	}

	selector := BuildSelector(req.FormatID, req.Hint)
	transient := newTransient(d.dir, Extension(req.Hint, d.container))
	logger := logging.WithContext(ctx, d.logger).With(
		logging.String(logging.FieldURL, req.URL),
		logging.String(logging.FieldFormatID, req.FormatID),
		logging.String(logging.FieldStreamType, req.Hint.String()),
		logging.String(logging.FieldSelector, selector),
	)
	logger.Info("download started", logging.String("path", transient.Path))

	if err := d.extractor.FetchToFile(ctx, req.URL, selector, transient.Path); err != nil {
		d.discard(logger, transient)
		logging.ErrorWithContext(logger, "download failed", "download_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the extractor message and that the format id is offered for this url"),
		)
		return nil, err
	}

	info, err := os.Stat(transient.Path)
	if err != nil || !info.Mode().IsRegular() {
		d.discard(logger, transient)
		missing := services.Fail(services.ErrNotFound, fmt.Sprintf("File not found after download: %s", transient.Path), err)
		logging.ErrorWithContext(logger, "download produced no file", "download_missing_output",
			logging.Error(missing),
			logging.String(logging.FieldErrorHint, "the extractor exited cleanly but wrote elsewhere; check merge settings"),
		)
		return nil, missing
	}

	logger.Info("download finished",
		logging.String("path", transient.Path),
		logging.Int64("bytes", info.Size()),
	)
	return transient, nil
}

func (d *Dispatcher) discard(logger *slog.Logger, t *Transient) {
	if err := t.Release(); err != nil {
		logging.WarnWithContext(logger, "transient cleanup failed", "transient_cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove leftovers from the download directory"),
			logging.String(logging.FieldImpact, "stale files remain until the next server start"),
		)
	}
}

// Release releases t and logs a failure instead of returning it. Handlers use
// it in defer statements.
func (d *Dispatcher) Release(ctx context.Context, t *Transient) {
	d.discard(logging.WithContext(ctx, d.logger), t)
}
