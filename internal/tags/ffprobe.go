package tags

import (
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"

	"github.com/franz/jp3-organiser/internal/util"
)

// probeOutput is the part of ffprobe's JSON output used here
type probeOutput struct {
	Format *struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration asks ffprobe for the duration of an audio file in whole
// seconds. It returns util.ErrNotFound when ffprobe is not installed.
func ProbeDuration(path string) (uint16, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0, util.ErrNotFound
	}

	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return 0, fmt.Errorf("ffprobe failed: %s", string(exitErr.Stderr))
		}
		return 0, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	var out probeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if out.Format == nil {
		return 0, fmt.Errorf("ffprobe reported no format for %s", path)
	}
	return parseDuration(out.Format.Duration)
}

// parseDuration converts ffprobe's decimal seconds, rounding to the nearest
// second and clamping to what a song row can hold
func parseDuration(s string) (uint16, error) {
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("duration unavailable")
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs < 0 || math.IsNaN(secs) {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	secs = math.Round(secs)
	if secs > math.MaxUint16 {
		return math.MaxUint16, nil
	}
	return uint16(secs), nil
}
