package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"clipwebapi/cmdexec"
)

// ErrProbe marks every failure to read source dimensions. Callers treat it as non-fatal.
var ErrProbe = errors.New("probe failed")

// Dimensions are the pixel size of a video stream.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// probeOutput is the subset of ffprobe's JSON we rely on.
type probeOutput struct {
	Streams []Dimensions `json:"streams"`
}

// Prober reads stream metadata with ffprobe.
type Prober struct {
	bin    string
	runner cmdexec.Runner
}

func NewProber(bin string, runner cmdexec.Runner) *Prober {
	return &Prober{bin: bin, runner: runner}
}

// Probe returns the dimensions of the first video stream in path.
func (p *Prober) Probe(ctx context.Context, path string) (Dimensions, error) {
	res, err := p.runner.Run(ctx, p.bin,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	)
	if err != nil {
		return Dimensions{}, fmt.Errorf("%w: %v", ErrProbe, err)
	}
	return ParseProbeOutput([]byte(res.Stdout))
}

// ParseProbeOutput decodes ffprobe JSON and fails closed on any shape mismatch.
func ParseProbeOutput(data []byte) (Dimensions, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Dimensions{}, fmt.Errorf("%w: failed to parse ffprobe output: %v", ErrProbe, err)
	}
	if len(out.Streams) == 0 {
		return Dimensions{}, fmt.Errorf("%w: no video stream found", ErrProbe)
	}
	d := out.Streams[0]
	if d.Width <= 0 || d.Height <= 0 {
		return Dimensions{}, fmt.Errorf("%w: invalid dimensions %dx%d", ErrProbe, d.Width, d.Height)
	}
	return d, nil
}
