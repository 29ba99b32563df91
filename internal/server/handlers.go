package server

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"vidfetch/internal/download"
	"vidfetch/internal/formats"
	"vidfetch/internal/logging"
	"vidfetch/internal/services"
)

const noURLMessage = "No URL provided"

type infoResponse struct {
	Title     *string           `json:"title"`
	Thumbnail *string           `json:"thumbnail"`
	Formats   []formats.Summary `json:"formats"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.methodNotAllowed(w, "GET, HEAD")
		return
	}
	page, err := assetFS.ReadFile("assets/index.html")
	if err != nil {
		s.writeText(w, http.StatusInternalServerError, "landing page unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(page)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	ctx := services.WithOperation(r.Context(), "info")
	logger := logging.WithContext(ctx, s.logger)

	fields, err := formFields(w, r, "url")
	if err != nil {
		logger.Debug("unreadable info body", logging.Error(err))
	}
	url := fields["url"]
	if url == "" {
		s.writeError(w, http.StatusBadRequest, noURLMessage)
		return
	}

	meta, err := s.extractor.FetchMetadata(ctx, url)
	if err != nil {
		logging.ErrorWithContext(logger, "metadata extraction failed", "info_failed",
			logging.String(logging.FieldURL, url),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the url is a single public video supported by the extractor"),
		)
		s.writeError(w, http.StatusInternalServerError, services.Message(err))
		return
	}

	summaries := formats.Reduce(meta.Formats)
	logger.Info("metadata served",
		logging.String(logging.FieldURL, url),
		logging.Int("raw_formats", len(meta.Formats)),
		logging.Int("offered_formats", len(summaries)),
	)
	s.writeJSON(w, http.StatusOK, infoResponse{
		Title:     meta.Title,
		Thumbnail: meta.Thumbnail,
		Formats:   summaries,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	ctx := services.WithOperation(r.Context(), "download")
	logger := logging.WithContext(ctx, s.logger)

	fields, err := formFields(w, r, "url", "format_id", "stream_type")
	if err != nil {
		logger.Debug("unreadable download body", logging.Error(err))
	}
	req := download.Request{
		URL:      fields["url"],
		FormatID: fields["format_id"],
		Hint:     download.ParseStreamHint(fields["stream_type"]),
	}

	transient, err := s.dispatcher.Fetch(ctx, req)
	if err != nil {
		s.writeText(w, services.StatusCode(err), services.Message(err))
		return
	}
	defer s.dispatcher.Release(ctx, transient)

	file, err := os.Open(transient.Path)
	if err != nil {
		s.writeText(w, http.StatusInternalServerError, "File not found after download: "+transient.Path)
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		s.writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType(transient.Name))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": transient.Name}))
	http.ServeContent(w, r, transient.Name, info.ModTime(), file)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}
	s.writeJSON(w, http.StatusOK, BuildStatus(r.Context(), s.cfg, s.extractor, s.backendName()))
}

var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4a":  "audio/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".flv":  "video/x-flv",
	".avi":  "video/x-msvideo",
}

func contentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if value, ok := mediaTypes[ext]; ok {
		return value
	}
	if value := mime.TypeByExtension(ext); value != "" {
		return value
	}
	return "application/octet-stream"
}
