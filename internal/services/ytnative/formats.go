package ytnative

import (
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"vidfetch/internal/formats"
)

const audioOnlyLabel = "audio only"

// toRawFormat describes a YouTube stream the way yt-dlp would.
func toRawFormat(f *youtube.Format, duration time.Duration) formats.RawFormat {
	mediaType, codecs := parseMimeType(f.MimeType)
	raw := formats.RawFormat{
		FormatID:   strconv.Itoa(f.ItagNo),
		Ext:        extensionFor(mediaType),
		Resolution: f.QualityLabel,
		FormatNote: f.Quality,
		VCodec:     formats.CodecNone,
		ACodec:     formats.CodecNone,
		Filesize:   float64(f.ContentLength),
	}
	switch {
	case strings.HasPrefix(mediaType, "video/"):
		if len(codecs) > 0 {
			raw.VCodec = codecs[0]
		}
		if len(codecs) > 1 {
			raw.ACodec = codecs[1]
		}
	case strings.HasPrefix(mediaType, "audio/"):
		if len(codecs) > 0 {
			raw.ACodec = codecs[0]
		}
		if raw.Resolution == "" {
			raw.Resolution = audioOnlyLabel
		}
	}
	if rate := bitrate(f); rate > 0 && duration > 0 {
		raw.FilesizeApprox = float64(rate) * duration.Seconds() / 8
	}
	return raw
}

func parseMimeType(value string) (string, []string) {
	mediaType, params, err := mime.ParseMediaType(value)
	if err != nil {
		mediaType, _, _ = strings.Cut(value, ";")
		return strings.ToLower(strings.TrimSpace(mediaType)), nil
	}
	var codecs []string
	for _, codec := range strings.Split(params["codecs"], ",") {
		if codec = strings.TrimSpace(codec); codec != "" {
			codecs = append(codecs, codec)
		}
	}
	return mediaType, codecs
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "audio/mp4":
		return "m4a"
	case "video/3gpp":
		return "3gp"
	case "":
		return ""
	}
	_, subtype, _ := strings.Cut(mediaType, "/")
	return subtype
}

func hasVideo(f *youtube.Format) bool {
	return strings.HasPrefix(strings.ToLower(f.MimeType), "video/")
}

func hasAudio(f *youtube.Format) bool {
	if strings.HasPrefix(strings.ToLower(f.MimeType), "audio/") {
		return true
	}
	mediaType, codecs := parseMimeType(f.MimeType)
	return strings.HasPrefix(mediaType, "video/") && (len(codecs) > 1 || f.AudioChannels > 0)
}

// largestThumbnail picks by pixel area; the first wins ties.
func largestThumbnail(thumbs youtube.Thumbnails) string {
	var (
		best string
		area uint
	)
	for _, thumb := range thumbs {
		if thumb.URL == "" {
			continue
		}
		if a := thumb.Width * thumb.Height; best == "" || a > area {
			best, area = thumb.URL, a
		}
	}
	return best
}
