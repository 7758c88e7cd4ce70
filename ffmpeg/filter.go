package ffmpeg

import (
	"fmt"
	"strings"
)

// AspectRatio is the requested output framing.
type AspectRatio string

const (
	AspectOriginal AspectRatio = "original"
	AspectVertical AspectRatio = "vertical"
	AspectSquare   AspectRatio = "square"
)

// ParseAspectRatio maps a request value to an AspectRatio. Empty means original.
func ParseAspectRatio(s string) (AspectRatio, error) {
	switch AspectRatio(s) {
	case "", AspectOriginal:
		return AspectOriginal, nil
	case AspectVertical, AspectSquare:
		return AspectRatio(s), nil
	}
	return "", fmt.Errorf("unknown aspect ratio %q: must be one of original, vertical, square", s)
}

// CropFilter picks a centered crop for the requested aspect ratio, or "" when
// the source already fits.
func CropFilter(aspect AspectRatio, d Dimensions) string {
	switch aspect {
	case AspectVertical:
		// Only crop sources wider than 9:16.
		if d.Width*16 > d.Height*9 {
			return "crop=ih*9/16:ih"
		}
	case AspectSquare:
		if d.Width > d.Height {
			return "crop=ih:ih"
		}
		return "crop=iw:iw"
	}
	return ""
}

// EscapeFilterPath makes a file path safe inside a filtergraph option value.
func EscapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.ReplaceAll(p, ":", `\:`)
}

// SubtitlesFilter burns the given subtitle file into the video.
func SubtitlesFilter(path string) string {
	return fmt.Sprintf("subtitles=filename='%s'", EscapeFilterPath(path))
}
