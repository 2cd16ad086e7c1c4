package api

import (
	"time"

	"discompressor/internal/deps"
	"discompressor/internal/encoding"
	"discompressor/internal/history"
	"discompressor/internal/media/ffprobe"
	"discompressor/internal/progress"
)

// FromHistoryEntry converts a stored history row.
func FromHistoryEntry(entry history.Entry) TranscodeRecord {
	record := TranscodeRecord{
		ID:              entry.ID,
		InputPath:       entry.InputPath,
		OutputPath:      entry.OutputPath,
		TargetMB:        entry.TargetMB,
		DurationSeconds: entry.DurationSeconds,
		BitrateBPS:      entry.BitrateBPS,
		OutputBytes:     entry.OutputBytes,
		Outcome:         entry.Outcome,
		Message:         entry.Message,
		StartedAt:       formatTime(entry.StartedAt),
		FinishedAt:      formatTime(entry.FinishedAt),
	}
	if !entry.StartedAt.IsZero() && entry.FinishedAt.After(entry.StartedAt) {
		record.ElapsedSeconds = entry.FinishedAt.Sub(entry.StartedAt).Seconds()
	}
	return record
}

// FromHistoryEntries converts a slice of history rows, preserving order.
func FromHistoryEntries(entries []history.Entry) []TranscodeRecord {
	records := make([]TranscodeRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, FromHistoryEntry(entry))
	}
	return records
}

// FromEvent converts a progress event.
func FromEvent(ev progress.Event) ProgressUpdate {
	return ProgressUpdate{
		Kind:       ev.Kind.String(),
		Percent:    ev.Percent(),
		Bytes:      ev.Bytes,
		Total:      ev.Total,
		OutputPath: ev.OutputPath,
		Message:    ev.Message,
	}
}

// FromDependencyStatuses converts dependency checks.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Detail:      s.Detail,
		})
	}
	return out
}

// FromProbeResult summarizes a full prober inspection.
func FromProbeResult(path string, result ffprobe.Result) ProbeReport {
	report := ProbeReport{
		Path:            path,
		Container:       result.Format.FormatLongName,
		DurationSeconds: result.DurationSeconds(),
		SizeBytes:       result.SizeBytes(),
		BitRate:         result.BitRate(),
		AudioStreams:    result.AudioStreamCount(),
	}
	if report.Container == "" {
		report.Container = result.Format.FormatName
	}
	if video, ok := result.VideoStream(); ok {
		report.VideoCodec = video.CodecName
		report.Width = video.Width
		report.Height = video.Height
	}
	return report
}

// historyEntryFromSummary maps a finished job onto a history row.
func historyEntryFromSummary(summary encoding.Summary, outputBytes int64) history.Entry {
	entry := history.Entry{
		ID:              summary.ID,
		InputPath:       summary.Request.InputPath,
		OutputPath:      summary.Plan.OutputPath,
		TargetMB:        summary.Request.TargetMB,
		DurationSeconds: summary.Plan.DurationSeconds,
		BitrateBPS:      summary.Plan.BitrateBPS,
		OutputBytes:     outputBytes,
		Outcome:         summary.State.String(),
		StartedAt:       summary.StartedAt,
		FinishedAt:      summary.FinishedAt,
	}
	if summary.Err != nil {
		entry.Message = summary.Err.Error()
	}
	return entry
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
