// Package subtitle rewrites WebVTT cue timings so they are relative to a clip start.
package subtitle

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"clipwebapi/timecode"
)

var timingLine = regexp.MustCompile(`^(\d{2,}:\d{2}:\d{2}\.\d{3}) --> (\d{2,}:\d{2}:\d{2}\.\d{3})(.*)$`)

// Cue is one timed caption entry.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// Shift moves the cue back by offset seconds. It reports false when the cue
// ends before the new origin. A negative start is kept as is.
func (c Cue) Shift(offset float64) (Cue, bool) {
	shifted := Cue{Start: c.Start - offset, End: c.End - offset, Text: c.Text}
	if shifted.End < 0 {
		return Cue{}, false
	}
	return shifted, true
}

// Adjust shifts every cue in a WebVTT document back by clipStart and drops
// cues that end before it. The header block, notes and styles pass through untouched.
func Adjust(content, clipStart string) (string, error) {
	offset, err := timecode.Parse(clipStart)
	if err != nil {
		return "", fmt.Errorf("clip start: %w", err)
	}

	blocks := splitBlocks(content)
	out := make([]string, 0, len(blocks))
	for i, block := range blocks {
		if i == 0 && strings.HasPrefix(block[0], "WEBVTT") {
			out = append(out, strings.Join(block, "\n"))
			continue
		}

		rewritten, keep, err := adjustBlock(block, offset)
		if err != nil {
			return "", err
		}
		if keep {
			out = append(out, rewritten)
		}
	}

	if len(out) == 0 {
		return "", nil
	}
	return strings.Join(out, "\n\n") + "\n", nil
}

// AdjustFile reads a WebVTT file, adjusts it and writes the result to outPath.
func AdjustFile(inPath, outPath, clipStart string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read subtitles: %w", err)
	}
	adjusted, err := Adjust(string(data), clipStart)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, []byte(adjusted), 0o644); err != nil {
		return fmt.Errorf("write adjusted subtitles: %w", err)
	}
	return nil
}

func adjustBlock(block []string, offset float64) (string, bool, error) {
	for i, line := range block {
		m := timingLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		start, err := timecode.Parse(m[1])
		if err != nil {
			return "", false, err
		}
		end, err := timecode.Parse(m[2])
		if err != nil {
			return "", false, err
		}

		cue, ok := Cue{Start: start, End: end}.Shift(offset)
		if !ok {
			return "", false, nil
		}

		rewritten := make([]string, len(block))
		copy(rewritten, block)
		rewritten[i] = timecode.Format(cue.Start) + " --> " + timecode.Format(cue.End) + m[3]
		return strings.Join(rewritten, "\n"), true, nil
	}

	// NOTE, STYLE and REGION blocks carry no timing.
	return strings.Join(block, "\n"), true, nil
}

// splitBlocks groups lines into blank-line separated blocks.
func splitBlocks(content string) [][]string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var blocks [][]string
	var current []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}
