package testsupport

import (
	"context"
	"os"
	"sync"

	"vidfetch/internal/extractor"
)

// FetchCall records one FetchToFile invocation.
type FetchCall struct {
	URL      string
	Selector string
	Dest     string
}

// FakeExtractor is an in-memory extractor.Extractor for handler and
// dispatcher tests.
type FakeExtractor struct {
	Metadata    extractor.Metadata
	MetadataErr error

	// Content is written to the destination on a successful fetch.
	Content []byte
	// Sidecars are suffixes appended to the destination and written as
	// extra files, mimicking extractor fragments.
	Sidecars []string
	// SkipWrite makes FetchToFile succeed without producing a file.
	SkipWrite bool
	FetchErr  error

	VersionString string

	mu            sync.Mutex
	MetadataCalls []string
	FetchCalls    []FetchCall
}

var _ extractor.Extractor = (*FakeExtractor)(nil)

func (f *FakeExtractor) FetchMetadata(ctx context.Context, url string) (extractor.Metadata, error) {
	f.mu.Lock()
	f.MetadataCalls = append(f.MetadataCalls, url)
	f.mu.Unlock()
	if f.MetadataErr != nil {
		return extractor.Metadata{}, f.MetadataErr
	}
	return f.Metadata, nil
}

func (f *FakeExtractor) FetchToFile(ctx context.Context, url, selector, dest string) error {
	f.mu.Lock()
	f.FetchCalls = append(f.FetchCalls, FetchCall{URL: url, Selector: selector, Dest: dest})
	f.mu.Unlock()
	for _, suffix := range f.Sidecars {
		if err := os.WriteFile(dest+suffix, []byte("partial"), 0o644); err != nil {
			return err
		}
	}
	if f.FetchErr != nil {
		return f.FetchErr
	}
	if f.SkipWrite {
		return nil
	}
	return os.WriteFile(dest, f.Content, 0o644)
}

// Name identifies the fake in status output.
func (f *FakeExtractor) Name() string {
	return "fake"
}

// Version reports VersionString.
func (f *FakeExtractor) Version(context.Context) (string, error) {
	return f.VersionString, nil
}

// Calls returns copies of the recorded invocations.
func (f *FakeExtractor) Calls() ([]string, []FetchCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.MetadataCalls...), append([]FetchCall(nil), f.FetchCalls...)
}
