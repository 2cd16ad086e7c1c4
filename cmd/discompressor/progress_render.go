package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"discompressor/internal/logging"
	"discompressor/internal/progress"
)

// progressRenderer displays a progress stream. Update receives every event,
// including the terminal one.
type progressRenderer interface {
	Update(ev progress.Event)
}

type renderMode int

const (
	renderPercent renderMode = iota
	renderBytes
)

func newProgressRenderer(w io.Writer, label string, mode renderMode) progressRenderer {
	if isTerminal(w) {
		return newBarRenderer(w, label, mode)
	}
	return &lineRenderer{
		w:       w,
		label:   label,
		mode:    mode,
		sampler: logging.NewProgressSampler(10),
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type barRenderer struct {
	w     io.Writer
	label string
	mode  renderMode
	bar   *progressbar.ProgressBar
	total int64
}

func newBarRenderer(w io.Writer, label string, mode renderMode) *barRenderer {
	r := &barRenderer{w: w, label: label, mode: mode}
	if mode == renderPercent {
		r.bar = r.newBar(100)
	}
	return r
}

func (r *barRenderer) newBar(max int64) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(r.label),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	}
	if r.mode == renderBytes {
		opts = append(opts, progressbar.OptionShowBytes(true))
	}
	return progressbar.NewOptions64(max, opts...)
}

func (r *barRenderer) Update(ev progress.Event) {
	if r.mode == renderBytes && r.bar == nil {
		r.total = ev.Total
		if r.total <= 0 {
			r.total = -1
		}
		r.bar = r.newBar(r.total)
	}
	if ev.Terminal() {
		if ev.Kind == progress.KindSuccess {
			_ = r.bar.Finish()
		}
		fmt.Fprintln(r.w)
		return
	}
	if r.mode == renderBytes {
		_ = r.bar.Set64(ev.Bytes)
		return
	}
	_ = r.bar.Set(int(ev.Percent()))
}

// lineRenderer writes one line per 10% step for logs and pipes.
type lineRenderer struct {
	w       io.Writer
	label   string
	mode    renderMode
	sampler *logging.ProgressSampler
}

func (r *lineRenderer) Update(ev progress.Event) {
	if ev.Terminal() {
		return
	}
	if r.mode == renderBytes && ev.Total <= 0 {
		if r.sampler.ShouldLog(-1, r.label) {
			fmt.Fprintf(r.w, "%s: size unknown\n", r.label)
		}
		return
	}
	if !r.sampler.ShouldLog(ev.Fraction, r.label) {
		return
	}
	if r.mode == renderBytes {
		fmt.Fprintf(r.w, "%s: %3.0f%% (%s of %s)\n", r.label, ev.Percent(),
			humanize.Bytes(uint64(ev.Bytes)), humanize.Bytes(uint64(ev.Total)))
		return
	}
	fmt.Fprintf(r.w, "%s: %3.0f%%\n", r.label, ev.Percent())
}
