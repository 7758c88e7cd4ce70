// Package timecode converts between HH:MM:SS.mmm strings and seconds.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse converts "HH:MM:SS.mmm" into seconds. Hours and minutes must be
// integers; the seconds field may carry a fraction. Field ranges are not checked.
func Parse(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time code %q: want HH:MM:SS.mmm", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in time code %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in time code %q: %w", s, err)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in time code %q: %w", s, err)
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("invalid seconds in time code %q", s)
	}

	return float64(hours)*3600 + float64(minutes)*60 + seconds, nil
}

// Format renders seconds as "HH:MM:SS.mmm". Negative values are clamped to zero.
// Hours grow past two digits instead of wrapping.
func Format(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}

	ms := int64(math.Round(seconds * 1000))
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	secs := ms / 1000
	ms -= secs * 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, ms)
}
