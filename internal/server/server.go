package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"vidfetch/internal/config"
	"vidfetch/internal/download"
	"vidfetch/internal/extractor"
	"vidfetch/internal/logging"
)

//go:embed assets
var assetFS embed.FS

const shutdownTimeout = 5 * time.Second

// Server is the vidfetch HTTP surface.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	extractor  extractor.Extractor
	dispatcher *download.Dispatcher
	handler    http.Handler

	listener net.Listener
	server   *http.Server
}

// New wires the routes. cfg supplies the listen address and the status
// report; ext handles /info and dispatcher handles /download.
func New(cfg *config.Config, ext extractor.Extractor, dispatcher *download.Dispatcher, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config required")
	}
	if ext == nil || dispatcher == nil {
		return nil, errors.New("extractor and dispatcher required")
	}
	s := &Server{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "http"),
		extractor:  ext,
		dispatcher: dispatcher,
	}

	static, err := fs.Sub(assetFS, "assets")
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/download", s.handleDownload)
	mux.HandleFunc("/api/status", s.handleStatus)

	s.handler = withRequestID(withSecurityHeaders(s.withAccessLog(mux)))
	// WriteTimeout stays zero: a download blocks for the whole extraction
	// before the first byte and then streams an arbitrarily large file.
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	return s, nil
}

// Handler exposes the routed handler chain, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddress())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = listener
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("http server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("download_dir", s.dispatcher.Dir()),
	)
	return nil
}

// Addr reports the bound address once Start has returned.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests for up to five seconds.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.WarnWithContext(s.logger, "http shutdown incomplete", "http_shutdown_timeout",
			logging.Error(err),
			logging.String(logging.FieldImpact, "in-flight downloads were cut off"),
		)
	}
}

func (s *Server) backendName() string {
	if named, ok := s.extractor.(extractor.Named); ok {
		return named.Name()
	}
	return strings.TrimSpace(s.cfg.Extractor.Backend)
}
