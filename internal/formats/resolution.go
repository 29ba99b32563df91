package formats

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Resolution is one of the six canonical quality buckets, ordered ascending.
type Resolution int

const (
	ResolutionUnknown Resolution = iota
	Resolution240p
	Resolution480p
	Resolution720p
	Resolution1080p
	Resolution1440p
	Resolution2160p
)

// resolutionCount sizes per-bucket arrays; index 0 is ResolutionUnknown.
const resolutionCount = int(Resolution2160p) + 1

var resolutionLabels = [resolutionCount]string{
	ResolutionUnknown: "",
	Resolution240p:    "240p",
	Resolution480p:    "480p",
	Resolution720p:    "720p",
	Resolution1080p:   "1080p",
	Resolution1440p:   "1440p",
	Resolution2160p:   "2160p",
}

// normalizeRules is checked in order and the first match wins. The order is
// load-bearing: "1080" is tested before "4k", and "720" before everything.
var normalizeRules = []struct {
	needles    []string
	resolution Resolution
}{
	{[]string{"720"}, Resolution720p},
	{[]string{"1080"}, Resolution1080p},
	{[]string{"1440"}, Resolution1440p},
	{[]string{"2160", "4k"}, Resolution2160p},
	{[]string{"480"}, Resolution480p},
	{[]string{"240"}, Resolution240p},
}

// Resolutions lists the canonical buckets in ascending order.
func Resolutions() []Resolution {
	return []Resolution{Resolution240p, Resolution480p, Resolution720p, Resolution1080p, Resolution1440p, Resolution2160p}
}

// Normalize maps a free-text resolution or format note to its canonical
// bucket. Matching is a case-insensitive substring test. An empty label or one
// matching no rule reports false.
func Normalize(label string) (Resolution, bool) {
	if strings.TrimSpace(label) == "" {
		return ResolutionUnknown, false
	}
	folded := cases.Fold().String(label)
	for _, rule := range normalizeRules {
		for _, needle := range rule.needles {
			if strings.Contains(folded, needle) {
				return rule.resolution, true
			}
		}
	}
	return ResolutionUnknown, false
}

// ParseResolution accepts a canonical label such as "1080p".
func ParseResolution(label string) (Resolution, error) {
	for i, candidate := range resolutionLabels {
		if i != 0 && strings.EqualFold(strings.TrimSpace(label), candidate) {
			return Resolution(i), nil
		}
	}
	return ResolutionUnknown, fmt.Errorf("unknown resolution %q", label)
}

// Valid reports whether r is one of the six canonical buckets.
func (r Resolution) Valid() bool {
	return r > ResolutionUnknown && int(r) < resolutionCount
}

func (r Resolution) String() string {
	if !r.Valid() {
		return "unknown"
	}
	return resolutionLabels[r]
}

// MarshalText encodes the canonical label.
func (r Resolution) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("marshal resolution: invalid value %d", int(r))
	}
	return []byte(resolutionLabels[r]), nil
}

// UnmarshalText decodes a canonical label.
func (r *Resolution) UnmarshalText(text []byte) error {
	parsed, err := ParseResolution(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
