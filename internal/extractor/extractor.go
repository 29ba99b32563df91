package extractor

import (
	"context"

	"vidfetch/internal/formats"
)

// Metadata is what the extractor reports about a single video. Title and
// Thumbnail are nil when the extractor did not provide them.
type Metadata struct {
	Title     *string             `json:"title"`
	Thumbnail *string             `json:"thumbnail"`
	Formats   []formats.RawFormat `json:"formats"`
}

// Extractor is the contract every media backend satisfies.
type Extractor interface {
	// FetchMetadata resolves a single video (never a playlist).
	FetchMetadata(ctx context.Context, url string) (Metadata, error)
	// FetchToFile downloads the selector's media to dest, merging separate
	// video and audio streams when the selector asks for it.
	FetchToFile(ctx context.Context, url, selector, dest string) error
}

// Versioner is implemented by backends that can report a tool version.
type Versioner interface {
	Version(ctx context.Context) (string, error)
}

// Named is implemented by backends that have a display name.
type Named interface {
	Name() string
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
