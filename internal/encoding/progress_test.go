package encoding

import (
	"fmt"
	"strings"
	"testing"
)

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		line     string
		duration float64
		want     float64
		ok       bool
	}{
		{"frame=100 time=00:01:30.00 bitrate=1200.0kbits/s", 180, 0.5, true},
		{"size=    1024kB time=00:00:00.00 bitrate=N/A", 180, 0, true},
		{"frame=9000 time=00:04:00.00 bitrate=1.0kbits/s", 180, 1, true},
		{"time=01:00:00.50", 7201, 3600.5 / 7201, true},
		{"size=N/A time=N/A bitrate=N/A speed=N/A", 180, 0, false},
		{"Stream #0:0: Video: h264", 180, 0, false},
		{"time=00:01:30.00", 0, 0, false},
		{"", 180, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseProgressLine(tt.line, tt.duration)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ParseProgressLine(%q, %v) = (%v, %v), want (%v, %v)", tt.line, tt.duration, got, ok, tt.want, tt.ok)
		}
	}
}

func TestElapsedSeconds(t *testing.T) {
	got, ok := ElapsedSeconds("frame=1 time=02:03:04.25 speed=2x")
	if !ok || got != 2*3600+3*60+4.25 {
		t.Fatalf("ElapsedSeconds = (%v, %v)", got, ok)
	}
	if _, ok := ElapsedSeconds("time=1:2:3"); ok {
		t.Fatal("malformed marker should not parse")
	}
}

func TestLineWriterSplitsCarriageReturnsAndNewlines(t *testing.T) {
	var lines []string
	w := newLineWriter(func(line string) { lines = append(lines, line) })

	chunks := []string{"frame=1 time=00:00:01.00\rframe=2 ti", "me=00:00:02.00\r", "\n", "Error opening output\r\nlast line"}
	for _, chunk := range chunks {
		if n, err := w.Write([]byte(chunk)); err != nil || n != len(chunk) {
			t.Fatalf("Write(%q) = %d, %v", chunk, n, err)
		}
	}
	w.Flush()

	want := []string{"frame=1 time=00:00:01.00", "frame=2 time=00:00:02.00", "Error opening output", "last line"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
}

func TestLineWriterBoundsPartialLine(t *testing.T) {
	var got string
	w := newLineWriter(func(line string) { got = line })
	w.Write([]byte(strings.Repeat("x", maxPartialLine+100)))
	w.Flush()
	if len(got) != maxPartialLine {
		t.Fatalf("expected partial line capped at %d bytes, got %d", maxPartialLine, len(got))
	}
}

func TestTailBufferKeepsLastLines(t *testing.T) {
	tail := newTailBuffer(3)
	for i := 1; i <= 5; i++ {
		tail.Add(fmt.Sprintf("line %d", i))
	}
	if got := tail.String(); got != "line 3\nline 4\nline 5" {
		t.Fatalf("tail = %q", got)
	}
	if newTailBuffer(0).limit != 10 {
		t.Fatal("default tail limit should be 10")
	}
}
