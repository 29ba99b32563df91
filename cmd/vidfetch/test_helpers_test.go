package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidfetch/internal/config"
	"vidfetch/internal/testsupport"
)

const metadataFixture = `{
  "_type": "video",
  "title": "Test Clip",
  "thumbnail": "https://img.example/t.jpg",
  "formats": [
    {"format_id": "136", "ext": "mp4", "resolution": "1280x720", "format_note": "720p", "vcodec": "avc1", "acodec": "none", "filesize": 31457280},
    {"format_id": "22", "ext": "mp4", "resolution": "1280x720", "format_note": "720p", "vcodec": "avc1", "acodec": "mp4a", "filesize": 52428800},
    {"format_id": "137", "ext": "mp4", "resolution": "1920x1080", "format_note": "1080p", "vcodec": "avc1", "acodec": "none", "filesize_approx": 104857600},
    {"format_id": "140", "ext": "m4a", "resolution": "audio only", "vcodec": "none", "acodec": "mp4a", "filesize": 1000}
  ]
}`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	binDir     string
}

// setupCLITestEnv writes a config whose yt-dlp is a shell stub. The stub
// answers --version, prints the metadata fixture for --dump-single-json and
// otherwise writes "media" to the --output path.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("PORT", "")

	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	fixturePath := filepath.Join(base, "metadata.json")
	if err := os.WriteFile(fixturePath, []byte(metadataFixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	stub := filepath.Join(binDir, "yt-dlp")
	script := fmt.Sprintf(`#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    --version) echo "2026.01.01"; exit 0 ;;
    --dump-single-json) cat %q; exit 0 ;;
  esac
done
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "--output" ]; then out="$arg"; fi
  prev="$arg"
done
printf 'media' > "$out"
echo "[download] 100.0%% of 5.00B"
exit 0
`, fixturePath)
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	cfg.Extractor.YtDlpBinary = stub
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, binDir: binDir}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[server]\nbind = %q\nport = 5055\n\n[paths]\ndownload_dir = %q\nlog_dir = %q\n\n[extractor]\nbackend = %q\nytdlp_binary = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.Server.Bind,
		cfg.Paths.DownloadDir,
		cfg.Paths.LogDir,
		cfg.Extractor.Backend,
		cfg.Extractor.YtDlpBinary,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
