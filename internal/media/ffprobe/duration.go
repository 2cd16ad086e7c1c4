package ffprobe

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"discompressor/internal/procutil"
	"discompressor/internal/services"
)

// DurationArgs are the prober arguments preceding the input path.
var DurationArgs = []string{"-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1"}

// Duration asks the prober for the container duration in seconds. Any
// failure (non-zero exit, empty or unparsable output, non-positive or
// non-finite value) wraps services.ErrProbe.
func Duration(ctx context.Context, binary, input string) (float64, error) {
	if strings.TrimSpace(binary) == "" {
		return 0, services.Wrap(services.ErrBinaryMissing, "probing", "duration", "prober path not set", nil)
	}

	args := append(append([]string(nil), DurationArgs...), input)
	cmd := exec.CommandContext(ctx, binary, args...)
	procutil.Configure(cmd)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return 0, services.Wrap(services.ErrProbe, "probing", "duration", "prober timed out", services.ErrTimeout)
			}
			return 0, services.Wrap(services.ErrProbe, "probing", "duration", "", ctxErr)
		}
		return 0, services.Wrap(services.ErrProbe, "probing", "duration", strings.TrimSpace(stderr.String()), err)
	}

	return ParseDuration(stdout.String())
}

// ParseDuration parses the single-line prober output.
func ParseDuration(output string) (float64, error) {
	line := strings.TrimSpace(output)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if line == "" {
		return 0, services.Wrap(services.ErrProbe, "probing", "parse duration", "", errNoDuration)
	}
	value, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, services.Wrap(services.ErrProbe, "probing", "parse duration", "", err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0, services.Wrap(services.ErrProbe, "probing", "parse duration", "", invalidDuration(value))
	}
	return value, nil
}
