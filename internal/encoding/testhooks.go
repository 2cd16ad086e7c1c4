package encoding

import (
	"context"

	"discompressor/internal/media/ffprobe"
)

// probeDuration is the duration probe used by jobs. It is a package-level
// variable so tests can override it.
var probeDuration = ffprobe.Duration

// SetDurationProbeForTests overrides the duration probe during tests.
func SetDurationProbeForTests(fn func(context.Context, string, string) (float64, error)) func() {
	previous := probeDuration
	probeDuration = fn
	return func() {
		probeDuration = previous
	}
}
