package formats

import "math"

// CodecNone is the extractor's sentinel for an absent track.
const CodecNone = "none"

const bytesPerMB = 1024 * 1024

// StreamKind tells whether a format already carries audio.
type StreamKind string

const (
	StreamVideoAudio StreamKind = "video+audio"
	StreamVideoOnly  StreamKind = "video-only"
)

// RawFormat is a format descriptor as reported by the extractor. Sizes are in
// bytes; zero means the extractor did not report one.
type RawFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Resolution     string  `json:"resolution"`
	FormatNote     string  `json:"format_note"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Filesize       float64 `json:"filesize"`
	FilesizeApprox float64 `json:"filesize_approx"`
}

// Label returns the resolution text used for bucketing: resolution, falling
// back to the format note only when resolution is empty.
func (f RawFormat) Label() string {
	if f.Resolution != "" {
		return f.Resolution
	}
	return f.FormatNote
}

// HasVideo reports whether the descriptor carries a video track. An absent
// codec is not the sentinel.
func (f RawFormat) HasVideo() bool {
	return f.VCodec != CodecNone
}

// Kind classifies the descriptor by its audio track.
func (f RawFormat) Kind() StreamKind {
	if f.ACodec != CodecNone {
		return StreamVideoAudio
	}
	return StreamVideoOnly
}

// SizeMB prefers the exact size over the estimate and rounds to two decimals.
// It returns nil when neither is reported.
func (f RawFormat) SizeMB() *float64 {
	var bytes float64
	switch {
	case f.Filesize > 0:
		bytes = f.Filesize
	case f.FilesizeApprox > 0:
		bytes = f.FilesizeApprox
	default:
		return nil
	}
	mb := math.Round(bytes/bytesPerMB*100) / 100
	return &mb
}

// Summary is the per-resolution representative returned to clients.
type Summary struct {
	FormatID   string     `json:"format_id"`
	Ext        string     `json:"ext"`
	Resolution Resolution `json:"resolution"`
	// FilesizeMB is nil when the extractor reported no size.
	FilesizeMB *float64   `json:"filesize"`
	StreamType StreamKind `json:"stream_type"`
}

// Reduce keeps one video-bearing format per canonical resolution, preferring
// the largest known size, and returns them in ascending resolution order.
// The result is never nil.
func Reduce(raw []RawFormat) []Summary {
	var best [resolutionCount]*Summary
	for _, f := range raw {
		resolution, ok := Normalize(f.Label())
		if !ok || !resolution.Valid() {
			continue
		}
		if !f.HasVideo() {
			continue
		}
		candidate := Summary{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			Resolution: resolution,
			FilesizeMB: f.SizeMB(),
			StreamType: f.Kind(),
		}
		current := best[resolution]
		if current == nil || displaces(candidate.FilesizeMB, current.FilesizeMB) {
			best[resolution] = &candidate
		}
	}

	out := make([]Summary, 0, len(best))
	for _, summary := range best {
		if summary != nil {
			out = append(out, *summary)
		}
	}
	return out
}

// displaces reports whether a candidate size beats the incumbent. A size that
// rounds to zero counts as unknown on both sides.
func displaces(candidate, incumbent *float64) bool {
	if !known(candidate) {
		return false
	}
	return !known(incumbent) || *candidate > *incumbent
}

func known(size *float64) bool {
	return size != nil && *size != 0
}
