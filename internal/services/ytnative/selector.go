package ytnative

import (
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// Selector tokens understood besides numeric itags.
const (
	tokenBest      = "best"
	tokenBestVideo = "bestvideo"
	tokenBestAudio = "bestaudio"
)

// maxMergeParts is the number of streams ffmpeg merges into one container.
const maxMergeParts = 2

// alternative is one "/"-separated branch of a selector. Each part names one
// stream; two parts are merged.
type alternative []string

// parseSelector splits a yt-dlp style selector such as
// "137+bestaudio/best" into its fallback alternatives.
func parseSelector(selector string) []alternative {
	var out []alternative
	for _, branch := range strings.Split(selector, "/") {
		branch = strings.TrimSpace(branch)
		if branch == "" {
			continue
		}
		var parts alternative
		for _, part := range strings.Split(branch, "+") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) > 0 {
			out = append(out, parts)
		}
	}
	return out
}

// resolve returns the formats for the first alternative whose every part
// resolves, or nil when none does.
func resolve(list youtube.FormatList, selector string) []*youtube.Format {
	for _, alt := range parseSelector(selector) {
		if len(alt) > maxMergeParts {
			continue
		}
		picked := make([]*youtube.Format, 0, len(alt))
		for _, token := range alt {
			format := resolveToken(list, token)
			if format == nil {
				break
			}
			picked = append(picked, format)
		}
		if len(picked) == len(alt) {
			return picked
		}
	}
	return nil
}

func resolveToken(list youtube.FormatList, token string) *youtube.Format {
	switch token {
	case tokenBest:
		return pickBest(list, func(f *youtube.Format) bool { return hasVideo(f) && hasAudio(f) })
	case tokenBestVideo:
		return pickBest(list, func(f *youtube.Format) bool { return hasVideo(f) && !hasAudio(f) })
	case tokenBestAudio:
		return pickBest(list, func(f *youtube.Format) bool { return hasAudio(f) && !hasVideo(f) })
	}
	itag, err := strconv.Atoi(token)
	if err != nil {
		return nil
	}
	for i := range list {
		if list[i].ItagNo == itag {
			return &list[i]
		}
	}
	return nil
}

// pickBest prefers the tallest picture, then the highest bitrate.
func pickBest(list youtube.FormatList, keep func(*youtube.Format) bool) *youtube.Format {
	var best *youtube.Format
	for i := range list {
		candidate := &list[i]
		if !keep(candidate) {
			continue
		}
		if best == nil || betterThan(candidate, best) {
			best = candidate
		}
	}
	return best
}

func betterThan(a, b *youtube.Format) bool {
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	return bitrate(a) > bitrate(b)
}

func bitrate(f *youtube.Format) int {
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	return f.Bitrate
}
