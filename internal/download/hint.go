package download

import "strings"

// StreamHint is the caller's classification of the chosen format.
type StreamHint string

const (
	HintUnspecified StreamHint = ""
	HintVideoOnly   StreamHint = "video-only"
	HintVideoAudio  StreamHint = "video+audio"
	HintAudioOnly   StreamHint = "audio-only"
)

// ParseStreamHint maps a client-supplied stream_type onto a hint. Matching is
// exact; anything else is unspecified.
func ParseStreamHint(value string) StreamHint {
	switch hint := StreamHint(strings.TrimSpace(value)); hint {
	case HintVideoOnly, HintVideoAudio, HintAudioOnly:
		return hint
	default:
		return HintUnspecified
	}
}

// String reports the hint, or "unspecified".
func (h StreamHint) String() string {
	if h == HintUnspecified {
		return "unspecified"
	}
	return string(h)
}

// BuildSelector turns a format id and hint into an extractor selector. A
// video-only format is paired with the best audio, and an unspecified hint
// ignores the id in favour of the best available streams.
func BuildSelector(formatID string, hint StreamHint) string {
	switch hint {
	case HintVideoOnly:
		return formatID + "+bestaudio/best"
	case HintVideoAudio, HintAudioOnly:
		return formatID
	default:
		return "bestvideo+bestaudio/best"
	}
}

// Extension picks the transient file extension. Audio-only downloads are
// m4a; everything else uses the merge container.
func Extension(hint StreamHint, container string) string {
	if hint == HintAudioOnly {
		return "m4a"
	}
	container = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(container)), ".")
	if container == "" {
		return "mp4"
	}
	return container
}
