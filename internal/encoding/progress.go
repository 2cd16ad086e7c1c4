package encoding

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var timeMarker = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// ElapsedSeconds extracts the time=HH:MM:SS(.ff) marker from an encoder
// diagnostic line.
func ElapsedSeconds(line string) (float64, bool) {
	match := timeMarker.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	hours, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(match[2])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(match[3], 64)
	if err != nil {
		return 0, false
	}
	return float64(hours)*3600 + float64(minutes)*60 + seconds, true
}

// ParseProgressLine converts a diagnostic line into a completion fraction
// clamped to [0,1]. Lines without a usable marker report false.
func ParseProgressLine(line string, durationSeconds float64) (float64, bool) {
	if durationSeconds <= 0 {
		return 0, false
	}
	elapsed, ok := ElapsedSeconds(line)
	if !ok {
		return 0, false
	}
	return max(0, min(1, elapsed/durationSeconds)), true
}

// maxPartialLine bounds the bytes buffered while waiting for a line break.
const maxPartialLine = 64 * 1024

// lineWriter receives the encoder's stderr and hands complete lines to
// onLine. ffmpeg terminates status lines with \r, so both \r and \n end a
// line.
type lineWriter struct {
	mu      sync.Mutex
	partial []byte
	onLine  func(string)
}

func newLineWriter(onLine func(string)) *lineWriter {
	return &lineWriter{onLine: onLine}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	data := p
	for len(data) > 0 {
		idx := bytes.IndexAny(data, "\r\n")
		if idx < 0 {
			w.partial = append(w.partial, data...)
			if len(w.partial) > maxPartialLine {
				w.partial = w.partial[len(w.partial)-maxPartialLine:]
			}
			break
		}
		w.partial = append(w.partial, data[:idx]...)
		w.emit()
		data = data[idx+1:]
	}
	return len(p), nil
}

// Flush delivers a trailing line without a terminator.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emit()
}

func (w *lineWriter) emit() {
	line := strings.TrimSpace(string(w.partial))
	w.partial = w.partial[:0]
	if line != "" && w.onLine != nil {
		w.onLine(line)
	}
}

// tailBuffer keeps the last n diagnostic lines for failure messages.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	lines []string
}

func newTailBuffer(limit int) *tailBuffer {
	if limit <= 0 {
		limit = 10
	}
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
