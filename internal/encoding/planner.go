package encoding

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"discompressor/internal/services"
)

// bitsPerMegabyte is 1024 * 1024 * 8.
const bitsPerMegabyte = 8388608

// DefaultOutputExtension is used when no extension is configured.
const DefaultOutputExtension = ".mp4"

// Plan is the outcome of the planning stage.
type Plan struct {
	DurationSeconds float64
	BitrateBPS      int64
	OutputPath      string
}

// PlanBitrate returns floor(targetMB * 8388608 / durationSeconds). Results
// that do not fit an int64 or round down to zero are rejected.
func PlanBitrate(targetMB int, durationSeconds float64) (int64, error) {
	if targetMB <= 0 {
		return 0, services.Wrap(services.ErrValidation, "planning", "plan bitrate",
			fmt.Sprintf("target size must be positive, got %d MB", targetMB), nil)
	}
	if math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) || durationSeconds <= 0 {
		return 0, services.Wrap(services.ErrValidation, "planning", "plan bitrate",
			fmt.Sprintf("duration must be a positive number of seconds, got %v", durationSeconds), nil)
	}
	rate := math.Floor(float64(targetMB) * bitsPerMegabyte / durationSeconds)
	if math.IsInf(rate, 0) || rate >= math.MaxInt64 || rate < 1 {
		return 0, services.Wrap(services.ErrValidation, "planning", "plan bitrate",
			fmt.Sprintf("%d MB over %v seconds gives an unusable bitrate", targetMB, durationSeconds), nil)
	}
	return int64(rate), nil
}

// OutputPath places the output next to input: the input's base name without
// extension, a _<targetMB>mb suffix, then ext.
func OutputPath(input string, targetMB int, ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		ext = DefaultOutputExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	stem := strings.TrimSuffix(input, filepath.Ext(input))
	return fmt.Sprintf("%s_%dmb%s", stem, targetMB, ext)
}

// EncoderArgs builds the encoder command line. The bitrate is applied to
// both the video bitrate and the rate-control buffer.
func EncoderArgs(input string, bitrateBPS int64, output string) []string {
	rate := fmt.Sprintf("%d", bitrateBPS)
	return []string{"-i", input, "-b:v", rate, "-bufsize", rate, "-y", output}
}
