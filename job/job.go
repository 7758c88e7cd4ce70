// Package job runs clip requests through download, transcode and upload.
package job

import (
	"fmt"
	"strings"

	"clipwebapi/ffmpeg"
	"clipwebapi/timecode"
	"clipwebapi/ytdlp"
)

// Request is the client payload for a new clip.
type Request struct {
	URL         string `json:"url"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Subtitles   bool   `json:"subtitles"`
	FormatID    string `json:"formatId"`
	AspectRatio string `json:"aspectRatio"`
	UserID      string `json:"userId"`
}

// ValidationError is returned for requests the pipeline would never accept.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks required fields and the clip range.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.URL) == "" || strings.TrimSpace(r.StartTime) == "" ||
		strings.TrimSpace(r.EndTime) == "" || strings.TrimSpace(r.UserID) == "" {
		return &ValidationError{Field: "request", Reason: "missing required fields: url, startTime, endTime, userId"}
	}
	if err := ytdlp.ValidateURL(r.URL); err != nil {
		return &ValidationError{Field: "url", Reason: err.Error()}
	}

	start, err := timecode.Parse(r.StartTime)
	if err != nil {
		return &ValidationError{Field: "startTime", Reason: err.Error()}
	}
	end, err := timecode.Parse(r.EndTime)
	if err != nil {
		return &ValidationError{Field: "endTime", Reason: err.Error()}
	}
	if end <= start {
		return &ValidationError{Field: "endTime", Reason: "must be after startTime"}
	}

	if _, err := ffmpeg.ParseAspectRatio(r.AspectRatio); err != nil {
		return &ValidationError{Field: "aspectRatio", Reason: err.Error()}
	}
	return nil
}
