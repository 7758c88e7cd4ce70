package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrMetadata is returned when yt-dlp's JSON does not match the expected shape.
var ErrMetadata = errors.New("invalid yt-dlp metadata")

// Format is one entry of yt-dlp's "formats" array.
type Format struct {
	FormatID string  `json:"format_id"`
	Ext      string  `json:"ext"`
	VCodec   string  `json:"vcodec"`
	ACodec   string  `json:"acodec"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
}

// VideoInfo is the subset of `yt-dlp -j` output the API exposes.
type VideoInfo struct {
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	Formats   []Format `json:"formats"`
}

// FormatOption is a user-facing quality choice.
type FormatOption struct {
	FormatID string `json:"format_id"`
	Label    string `json:"label"`
}

// FormatList is the /formats response body.
type FormatList struct {
	Formats   []FormatOption `json:"formats"`
	Thumbnail string         `json:"thumbnail,omitempty"`
	Title     string         `json:"title,omitempty"`
}

// Formats looks up the downloadable qualities of url.
func (c *Client) Formats(ctx context.Context, url string) (*FormatList, error) {
	if err := ValidateURL(url); err != nil {
		return nil, err
	}
	args := append([]string{"-j", "--no-warnings"}, c.extraArgs...)
	args = append(args, "--", url)

	res, err := c.runner.Run(ctx, c.bin, args...)
	if err != nil {
		return nil, err
	}

	info, err := ParseVideoInfo([]byte(res.Stdout))
	if err != nil {
		return nil, err
	}
	return &FormatList{
		Formats:   SelectFormats(info.Formats),
		Thumbnail: info.Thumbnail,
		Title:     info.Title,
	}, nil
}

// ParseVideoInfo decodes `yt-dlp -j` output.
func ParseVideoInfo(data []byte) (*VideoInfo, error) {
	var info VideoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadata, err)
	}
	if info.Formats == nil {
		return nil, fmt.Errorf("%w: no formats listed", ErrMetadata)
	}
	return &info, nil
}

// SelectFormats keeps web-friendly video formats, highest first, one per label.
// Video-only formats get a bestaudio merge so the clip has sound.
func SelectFormats(formats []Format) []FormatOption {
	candidates := make([]Format, 0, len(formats))
	for _, f := range formats {
		if f.VCodec == "none" || f.Height <= 0 {
			continue
		}
		if f.Ext != "mp4" && f.Ext != "webm" {
			continue
		}
		candidates = append(candidates, f)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Height > candidates[j].Height
	})

	options := make([]FormatOption, 0, len(candidates))
	seen := make(map[string]bool)
	for _, f := range candidates {
		label := Label(f)
		if seen[label] {
			continue
		}
		seen[label] = true

		id := f.FormatID
		if f.ACodec == "none" {
			id += "+bestaudio[ext=m4a]"
		}
		options = append(options, FormatOption{FormatID: id, Label: label})
	}
	return options
}

// Label renders a quality label such as "720p" or "1080p60".
func Label(f Format) string {
	label := strconv.Itoa(f.Height) + "p"
	if f.FPS > 30 {
		label += strconv.FormatFloat(f.FPS, 'f', -1, 64)
	}
	return label
}
