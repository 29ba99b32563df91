package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFmpeg reports the ffmpeg binary a merge will execute.
//
// An explicitly configured path wins. Otherwise a bundled ffmpeg sitting next
// to the yt-dlp executable is preferred, falling back to "ffmpeg" from PATH.
// The returned command is what should be passed as --ffmpeg-location.
func ResolveFFmpeg(configured, ytdlpCommand string) string {
	configured = strings.TrimSpace(configured)
	if configured != "" && configured != "ffmpeg" {
		return configured
	}

	if ytdlp := strings.TrimSpace(ytdlpCommand); ytdlp != "" {
		if resolved, err := exec.LookPath(ytdlp); err == nil {
			candidate := filepath.Join(filepath.Dir(resolved), executableName("ffmpeg"))
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				return candidate
			}
		}
	}
	return "ffmpeg"
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
