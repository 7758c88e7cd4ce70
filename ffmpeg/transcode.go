package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"clipwebapi/cmdexec"
)

// Encoder settings used whenever a filter forces a re-encode.
const (
	VideoCodec   = "libx264"
	VideoPreset  = "veryfast"
	VideoCRF     = "23"
	AudioCodec   = "aac"
	AudioBitrate = "128k"
)

// TranscodeRequest describes one ffmpeg pass over a downloaded clip.
type TranscodeRequest struct {
	Input   string
	Output  string
	Filters []string
}

// TranscodeArgs builds the ffmpeg argument list. With no filters the video
// stream is copied and only audio is re-encoded.
func TranscodeArgs(req TranscodeRequest) []string {
	args := []string{"-y", "-i", req.Input}
	if len(req.Filters) > 0 {
		args = append(args,
			"-vf", strings.Join(req.Filters, ","),
			"-c:v", VideoCodec, "-preset", VideoPreset, "-crf", VideoCRF,
			"-c:a", AudioCodec, "-b:a", AudioBitrate,
		)
	} else {
		args = append(args, "-c:v", "copy", "-c:a", AudioCodec, "-b:a", AudioBitrate)
	}
	return append(args, "-movflags", "+faststart", req.Output)
}

// Transcoder runs ffmpeg.
type Transcoder struct {
	bin    string
	runner cmdexec.Runner
}

func NewTranscoder(bin string, runner cmdexec.Runner) *Transcoder {
	return &Transcoder{bin: bin, runner: runner}
}

// Transcode executes one pass. On failure the error carries ffmpeg's stderr.
func (t *Transcoder) Transcode(ctx context.Context, req TranscodeRequest) error {
	args := TranscodeArgs(req)
	if _, err := t.runner.Run(ctx, t.bin, args...); err != nil {
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}
	return nil
}

// CheckBinary verifies that a tool is executable or on PATH.
func CheckBinary(bin string) error {
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("binary not found or not in PATH: %s", bin)
	}
	return nil
}
