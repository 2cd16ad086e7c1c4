package ffprobe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"discompressor/internal/services"
)

func writeProber(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestDurationParsesOutput(t *testing.T) {
	prober := writeProber(t, "echo 120.500000\n")
	got, err := Duration(context.Background(), prober, "/media/in.mkv")
	if err != nil {
		t.Fatalf("Duration returned error: %v", err)
	}
	if got != 120.5 {
		t.Fatalf("duration = %v, want 120.5", got)
	}
}

func TestDurationPassesExactArguments(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	prober := writeProber(t, "printf '%s\\n' \"$@\" > "+argsFile+"\necho 10\n")
	if _, err := Duration(context.Background(), prober, "/media/in file.mkv"); err != nil {
		t.Fatalf("Duration returned error: %v", err)
	}
	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	got := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := append(append([]string(nil), DurationArgs...), "/media/in file.mkv")
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestDurationFailures(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"non-zero exit", "echo 'In.mkv: No such file' >&2\nexit 1\n"},
		{"empty output", "exit 0\n"},
		{"not a number", "echo N/A\n"},
		{"zero", "echo 0.000000\n"},
		{"negative", "echo -5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := writeProber(t, tt.script)
			_, err := Duration(context.Background(), prober, "in.mkv")
			if !errors.Is(err, services.ErrProbe) {
				t.Fatalf("expected ErrProbe, got %v", err)
			}
		})
	}
}

func TestDurationMissingBinary(t *testing.T) {
	_, err := Duration(context.Background(), "", "in.mkv")
	if !errors.Is(err, services.ErrBinaryMissing) {
		t.Fatalf("expected ErrBinaryMissing, got %v", err)
	}
	_, err = Duration(context.Background(), filepath.Join(t.TempDir(), "absent"), "in.mkv")
	if !errors.Is(err, services.ErrProbe) {
		t.Fatalf("expected ErrProbe for unstartable binary, got %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	if got, err := ParseDuration(" 42.25\r\nextra\n"); err != nil || got != 42.25 {
		t.Fatalf("ParseDuration = %v, %v", got, err)
	}
	for _, bad := range []string{"", "   ", "NaN", "Inf", "abc"} {
		if _, err := ParseDuration(bad); !errors.Is(err, services.ErrProbe) {
			t.Fatalf("ParseDuration(%q) expected ErrProbe, got %v", bad, err)
		}
	}
}

func TestInspectDecodesJSON(t *testing.T) {
	prober := writeProber(t, `cat <<'JSON'
{"streams":[{"index":0,"codec_name":"h264","codec_type":"video","width":1920,"height":1080},{"index":1,"codec_type":"audio","channels":2}],
 "format":{"filename":"in.mp4","nb_streams":2,"format_name":"mov,mp4","duration":"60.0","size":"1048576","bit_rate":"139810"}}
JSON
`)
	result, err := Inspect(context.Background(), prober, "in.mp4")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	video, ok := result.VideoStream()
	if !ok || video.Width != 1920 || video.CodecName != "h264" {
		t.Fatalf("unexpected video stream %+v", video)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 60 || result.SizeBytes() != 1048576 || result.BitRate() != 139810 {
		t.Fatalf("unexpected format helpers: %+v", result.Format)
	}
}

func TestInspectFailure(t *testing.T) {
	prober := writeProber(t, "echo 'invalid data' >&2\nexit 1\n")
	_, err := Inspect(context.Background(), prober, "in.mp4")
	if !errors.Is(err, services.ErrProbe) || !strings.Contains(err.Error(), "invalid data") {
		t.Fatalf("expected ErrProbe with stderr, got %v", err)
	}
	if _, err := Inspect(context.Background(), prober, " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty path, got %v", err)
	}
}

func TestInspectTreatsDashPathAsOperand(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	prober := writeProber(t, "printf '%s\\n' \"$@\" > "+argsFile+"\necho '{\"streams\":[],\"format\":{}}'\n")
	if _, err := Inspect(context.Background(), prober, "-dash.mkv"); err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	got := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(got) < 2 || got[len(got)-2] != "--" || got[len(got)-1] != "-dash.mkv" {
		t.Fatalf("expected path after --, got %q", got)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1", BitRate: "nope"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 || result.BitRate() != 0 {
		t.Fatalf("expected zero size and bitrate, got %d %d", result.SizeBytes(), result.BitRate())
	}
	if _, ok := result.VideoStream(); ok {
		t.Fatal("expected no video stream")
	}
}
