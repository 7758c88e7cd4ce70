// Package ytdlp drives the yt-dlp command line tool.
package ytdlp

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"clipwebapi/cmdexec"
)

// DefaultFormatSelector prefers an mp4 video with m4a audio and falls back to the best mp4.
const DefaultFormatSelector = "bv[ext=mp4]+ba[ext=m4a]/best[ext=mp4]"

// SubtitleLang is the caption track requested alongside a clip.
const SubtitleLang = "en"

// DownloadRequest describes a time-ranged download.
type DownloadRequest struct {
	URL       string
	StartTime string
	EndTime   string
	FormatID  string
	Subtitles bool
	Output    string
}

// DownloadArgs builds the yt-dlp argument list for req. extra follows the
// fixed options and the URL comes last, after "--", so it is never read as an option.
func DownloadArgs(req DownloadRequest, extra []string) []string {
	selector := req.FormatID
	if selector == "" {
		selector = DefaultFormatSelector
	}

	args := []string{
		"-f", selector,
		"--download-sections", fmt.Sprintf("*%s-%s", req.StartTime, req.EndTime),
		"-o", req.Output,
		"--merge-output-format", "mp4",
		"--no-warnings",
	}
	if req.Subtitles {
		args = append(args, "--write-subs", "--write-auto-subs", "--sub-lang", SubtitleLang, "--sub-format", "vtt")
	}
	args = append(args, extra...)
	return append(args, "--", req.URL)
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("url must include a host")
	}
	return nil
}

// SubtitlePath is where yt-dlp writes the caption track for a given output file.
func SubtitlePath(output string) string {
	return strings.TrimSuffix(output, ".mp4") + "." + SubtitleLang + ".vtt"
}

// Client runs yt-dlp through a cmdexec.Runner.
type Client struct {
	bin       string
	extraArgs []string
	runner    cmdexec.Runner
}

func NewClient(bin string, extraArgs []string, runner cmdexec.Runner) *Client {
	return &Client{bin: bin, extraArgs: extraArgs, runner: runner}
}

// Download fetches the requested section into req.Output.
func (c *Client) Download(ctx context.Context, req DownloadRequest) error {
	args := DownloadArgs(req, c.extraArgs)
	if _, err := c.runner.Run(ctx, c.bin, args...); err != nil {
		return err
	}
	return nil
}
