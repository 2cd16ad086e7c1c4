package encoding

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"discompressor/internal/services"
)

func TestPlanBitrate(t *testing.T) {
	tests := []struct {
		targetMB int
		duration float64
		want     int64
	}{
		{50, 120.0, 3495253},
		{10, 60, 1398101},
		{500, 7200, 582542},
		{1, 1, 8388608},
		{8, 0.5, 134217728},
	}
	for _, tt := range tests {
		got, err := PlanBitrate(tt.targetMB, tt.duration)
		if err != nil {
			t.Fatalf("PlanBitrate(%d, %v) returned error: %v", tt.targetMB, tt.duration, err)
		}
		if got != tt.want {
			t.Fatalf("PlanBitrate(%d, %v) = %d, want %d", tt.targetMB, tt.duration, got, tt.want)
		}
		if want := int64(math.Floor(float64(tt.targetMB) * 8388608 / tt.duration)); got != want {
			t.Fatalf("PlanBitrate(%d, %v) = %d, formula gives %d", tt.targetMB, tt.duration, got, want)
		}
	}
}

func TestPlanBitrateRejectsDegenerateInput(t *testing.T) {
	cases := []struct {
		targetMB int
		duration float64
	}{
		{50, 0},
		{50, -1},
		{50, math.NaN()},
		{50, math.Inf(1)},
		{0, 120},
		{-10, 120},
		{500, 1e-12},
		{math.MaxInt, 0.001},
		{1, 1e8},
	}
	for _, c := range cases {
		if _, err := PlanBitrate(c.targetMB, c.duration); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("PlanBitrate(%d, %v) expected ErrValidation, got %v", c.targetMB, c.duration, err)
		}
	}
}

func TestOutputPath(t *testing.T) {
	dir := filepath.Join("videos", "trip")
	tests := []struct {
		input string
		mb    int
		ext   string
		want  string
	}{
		{filepath.Join(dir, "clip.mkv"), 50, ".mp4", filepath.Join(dir, "clip_50mb.mp4")},
		{filepath.Join(dir, "clip.mp4"), 10, "", filepath.Join(dir, "clip_10mb.mp4")},
		{filepath.Join(dir, "clip"), 500, "mkv", filepath.Join(dir, "clip_500mb.mkv")},
		{filepath.Join(dir, "my.holiday.mov"), 8, ".mp4", filepath.Join(dir, "my.holiday_8mb.mp4")},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.input, tt.mb, tt.ext); got != tt.want {
			t.Fatalf("OutputPath(%q, %d, %q) = %q, want %q", tt.input, tt.mb, tt.ext, got, tt.want)
		}
	}
}

func TestEncoderArgs(t *testing.T) {
	got := EncoderArgs("in.mkv", 3495253, "in_50mb.mp4")
	want := []string{"-i", "in.mkv", "-b:v", "3495253", "-bufsize", "3495253", "-y", "in_50mb.mp4"}
	if len(got) != len(want) {
		t.Fatalf("args = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("args = %q, want %q", got, want)
		}
	}
}
