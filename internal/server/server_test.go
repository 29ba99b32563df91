package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"vidfetch/internal/config"
	"vidfetch/internal/download"
	"vidfetch/internal/extractor"
	"vidfetch/internal/formats"
	"vidfetch/internal/logging"
	"vidfetch/internal/services"
	"vidfetch/internal/testsupport"
)

func newTestServer(t *testing.T, fake *testsupport.FakeExtractor) (*Server, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	dispatcher := download.NewDispatcher(fake, cfg.Paths.DownloadDir, download.WithLogger(logging.NewNop()))
	srv, err := New(cfg, fake, dispatcher, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return srv, cfg
}

func postForm(t *testing.T, h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func sampleMetadata() extractor.Metadata {
	return extractor.Metadata{
		Title:     extractor.StringPtr("Sample Clip"),
		Thumbnail: extractor.StringPtr("https://i.example/t.jpg"),
		Formats: []formats.RawFormat{
			{FormatID: "140", Ext: "m4a", Resolution: "audio only", VCodec: "none", ACodec: "mp4a", Filesize: 3 << 20},
			{FormatID: "136", Ext: "mp4", Resolution: "1280x720", VCodec: "avc1", ACodec: "none", Filesize: 30 << 20},
			{FormatID: "22", Ext: "mp4", Resolution: "1280x720", VCodec: "avc1", ACodec: "mp4a", Filesize: 50 << 20},
			{FormatID: "137", Ext: "mp4", Resolution: "1920x1080", VCodec: "avc1", ACodec: "none"},
		},
	}
}

func TestInfoMissingURL(t *testing.T) {
	fake := &testsupport.FakeExtractor{}
	srv, _ := newTestServer(t, fake)

	w := postForm(t, srv.Handler(), "/info", url.Values{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"error":"No URL provided"}` {
		t.Fatalf("unexpected body %q", got)
	}
	if calls, _ := fake.Calls(); len(calls) != 0 {
		t.Fatal("extractor must not be called without a url")
	}
}

func TestInfoReturnsReducedFormats(t *testing.T) {
	fake := &testsupport.FakeExtractor{Metadata: sampleMetadata()}
	srv, _ := newTestServer(t, fake)

	w := postForm(t, srv.Handler(), "/info", url.Values{"url": {"https://example.com/v"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var resp struct {
		Title     *string `json:"title"`
		Thumbnail *string `json:"thumbnail"`
		Formats   []struct {
			FormatID   string   `json:"format_id"`
			Ext        string   `json:"ext"`
			Resolution string   `json:"resolution"`
			Filesize   *float64 `json:"filesize"`
			StreamType string   `json:"stream_type"`
		} `json:"formats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Title == nil || *resp.Title != "Sample Clip" || resp.Thumbnail == nil {
		t.Fatalf("unexpected header fields %+v", resp)
	}
	if len(resp.Formats) != 2 {
		t.Fatalf("expected 2 formats, got %+v", resp.Formats)
	}
	first, second := resp.Formats[0], resp.Formats[1]
	if first.FormatID != "22" || first.Resolution != "720p" || first.StreamType != "video+audio" || first.Filesize == nil || *first.Filesize != 50 {
		t.Fatalf("unexpected 720p entry %+v", first)
	}
	if second.FormatID != "137" || second.Resolution != "1080p" || second.Filesize != nil {
		t.Fatalf("unexpected 1080p entry %+v", second)
	}
	if names, _ := fake.Calls(); len(names) != 1 || names[0] != "https://example.com/v" {
		t.Fatalf("unexpected extractor calls %v", names)
	}
}

func TestInfoNullFieldsAndEmptyFormats(t *testing.T) {
	fake := &testsupport.FakeExtractor{Metadata: extractor.Metadata{}}
	srv, _ := newTestServer(t, fake)

	w := postForm(t, srv.Handler(), "/info", url.Values{"url": {"u"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"title":null,"thumbnail":null,"formats":[]}` {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestInfoExtractorFailure(t *testing.T) {
	fake := &testsupport.FakeExtractor{MetadataErr: services.Fail(services.ErrExternalTool, "ERROR: Unsupported URL: u", errors.New("exit status 1"))}
	srv, _ := newTestServer(t, fake)

	w := postForm(t, srv.Handler(), "/info", url.Values{"url": {"u"}})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"error":"ERROR: Unsupported URL: u"}` {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestInfoAcceptsJSONAndMultipart(t *testing.T) {
	fake := &testsupport.FakeExtractor{Metadata: sampleMetadata()}
	srv, _ := newTestServer(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/info", strings.NewReader(`{"url":"https://example.com/json"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("json body: expected 200, got %d", w.Code)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("url", "https://example.com/multipart")
	_ = mw.Close()
	req = httptest.NewRequest(http.MethodPost, "/info", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("multipart body: expected 200, got %d", w.Code)
	}

	names, _ := fake.Calls()
	if len(names) != 2 || names[0] != "https://example.com/json" || names[1] != "https://example.com/multipart" {
		t.Fatalf("unexpected extractor calls %v", names)
	}
}

func TestInfoMalformedJSONIsMissingURL(t *testing.T) {
	srv, _ := newTestServer(t, &testsupport.FakeExtractor{})
	req := httptest.NewRequest(http.MethodPost, "/info", strings.NewReader(`{"url":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDownloadMissingData(t *testing.T) {
	fake := &testsupport.FakeExtractor{}
	srv, _ := newTestServer(t, fake)

	for _, values := range []url.Values{
		{"url": {"https://example.com/v"}},
		{"format_id": {"22"}},
		{},
	} {
		w := postForm(t, srv.Handler(), "/download", values)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", values, w.Code)
		}
		if w.Body.String() != "Missing data" {
			t.Fatalf("unexpected body %q", w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Fatalf("expected plain text, got %q", ct)
		}
	}
	if _, calls := fake.Calls(); len(calls) != 0 {
		t.Fatal("extractor must not be called for missing data")
	}
}

func TestDownloadStreamsAttachmentAndCleansUp(t *testing.T) {
	fake := &testsupport.FakeExtractor{Content: []byte("fake mp4 payload"), Sidecars: []string{".part"}}
	srv, cfg := newTestServer(t, fake)

	w := postForm(t, srv.Handler(), "/download", url.Values{
		"url":         {"https://example.com/v"},
		"format_id":   {"137"},
		"stream_type": {"video-only"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "fake mp4 payload" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("unexpected content type %q", ct)
	}

	_, calls := fake.Calls()
	if len(calls) != 1 || calls[0].Selector != "137+bestaudio/best" {
		t.Fatalf("unexpected extractor calls %+v", calls)
	}
	name := calls[0].Dest[len(cfg.Paths.DownloadDir)+1:]
	if got := w.Header().Get("Content-Disposition"); got != "attachment; filename="+name {
		t.Fatalf("unexpected disposition %q for %q", got, name)
	}
	if names := testsupport.ListDir(t, cfg.Paths.DownloadDir); len(names) != 0 {
		t.Fatalf("expected transient removed, found %v", names)
	}
}

func TestDownloadAudioOnlyAndUnknownHint(t *testing.T) {
	fake := &testsupport.FakeExtractor{Content: []byte("a")}
	srv, _ := newTestServer(t, fake)

	w := postForm(t, srv.Handler(), "/download", url.Values{"url": {"u"}, "format_id": {"140"}, "stream_type": {"audio-only"}})
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "audio/mp4" {
		t.Fatalf("audio-only: code %d type %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.HasSuffix(w.Header().Get("Content-Disposition"), ".m4a") {
		t.Fatalf("expected m4a filename, got %q", w.Header().Get("Content-Disposition"))
	}

	w = postForm(t, srv.Handler(), "/download", url.Values{"url": {"u"}, "format_id": {"22"}, "stream_type": {"surprise"}})
	if w.Code != http.StatusOK {
		t.Fatalf("unknown hint: expected 200, got %d", w.Code)
	}
	_, calls := fake.Calls()
	if calls[0].Selector != "140" || calls[1].Selector != "bestvideo+bestaudio/best" {
		t.Fatalf("unexpected selectors %+v", calls)
	}
}

func TestDownloadExtractorFailure(t *testing.T) {
	fake := &testsupport.FakeExtractor{
		Sidecars: []string{".part"},
		FetchErr: services.Fail(services.ErrExternalTool, "ERROR: Requested format is not available", nil),
	}
	srv, cfg := newTestServer(t, fake)

	w := postForm(t, srv.Handler(), "/download", url.Values{"url": {"u"}, "format_id": {"999"}, "stream_type": {"video+audio"}})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if w.Body.String() != "ERROR: Requested format is not available" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
	if names := testsupport.ListDir(t, cfg.Paths.DownloadDir); len(names) != 0 {
		t.Fatalf("expected no leftovers, found %v", names)
	}
}

func TestDownloadMissingOutput(t *testing.T) {
	fake := &testsupport.FakeExtractor{SkipWrite: true}
	srv, _ := newTestServer(t, fake)

	w := postForm(t, srv.Handler(), "/download", url.Values{"url": {"u"}, "format_id": {"22"}, "stream_type": {"video+audio"}})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	_, calls := fake.Calls()
	if want := "File not found after download: " + calls[0].Dest; w.Body.String() != want {
		t.Fatalf("body = %q, want %q", w.Body.String(), want)
	}
}

func TestDownloadSupportsRange(t *testing.T) {
	fake := &testsupport.FakeExtractor{Content: []byte("0123456789")}
	srv, _ := newTestServer(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(url.Values{"url": {"u"}, "format_id": {"22"}, "stream_type": {"video+audio"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Range", "bytes=2-5")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusPartialContent || w.Body.String() != "2345" {
		t.Fatalf("expected 206 with 2345, got %d %q", w.Code, w.Body.String())
	}
}

func TestMethodsAndRouting(t *testing.T) {
	srv, _ := newTestServer(t, &testsupport.FakeExtractor{})
	h := srv.Handler()

	tests := []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/info", http.StatusMethodNotAllowed},
		{http.MethodGet, "/download", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/status", http.StatusMethodNotAllowed},
		{http.MethodPost, "/", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodGet, "/static/app.js", http.StatusOK},
		{http.MethodGet, "/static/style.css", http.StatusOK},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		if w.Code != tt.code {
			t.Fatalf("%s %s: expected %d, got %d", tt.method, tt.path, tt.code, w.Code)
		}
	}
}

func TestLandingPageAndHeaders(t *testing.T) {
	srv, _ := newTestServer(t, &testsupport.FakeExtractor{})
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "/static/app.js") {
		t.Fatal("landing page should load the app script")
	}
	for _, header := range []string{"Content-Security-Policy", "X-Content-Type-Options", "X-Frame-Options", "Referrer-Policy", requestIDHeader} {
		if w.Header().Get(header) == "" {
			t.Fatalf("missing header %s", header)
		}
	}
}

func TestStatusEndpoint(t *testing.T) {
	fake := &testsupport.FakeExtractor{VersionString: "2025.09.26"}
	srv, cfg := newTestServer(t, fake)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var status Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Backend != "fake" || status.Version != "2025.09.26" || status.DownloadDir != cfg.Paths.DownloadDir {
		t.Fatalf("unexpected status %+v", status)
	}
	if len(status.Checks) != 2 {
		t.Fatalf("expected directory checks, got %+v", status.Checks)
	}
	for _, check := range status.Checks {
		if !check.Passed {
			t.Fatalf("check %s failed: %s", check.Name, check.Detail)
		}
	}
}

func TestStartServesUntilCancelled(t *testing.T) {
	srv, _ := newTestServer(t, &testsupport.FakeExtractor{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	resp, err := http.Get("http://" + srv.Addr() + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	srv.Stop()
}

func TestNewRequiresDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := New(nil, &testsupport.FakeExtractor{}, nil, nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := New(cfg, nil, nil, nil); err == nil {
		t.Fatal("expected error for nil extractor")
	}
}
