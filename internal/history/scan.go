package history

import (
	"database/sql"
	"errors"
	"time"
)

const entryColumns = "id, input_path, output_path, target_mb, duration_seconds, bitrate_bps, output_bytes, outcome, message, started_at, finished_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry       Entry
		outputPath  sql.NullString
		duration    sql.NullFloat64
		bitrate     sql.NullInt64
		outputBytes sql.NullInt64
		message     sql.NullString
		startedRaw  string
		finishedRaw string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.InputPath,
		&outputPath,
		&entry.TargetMB,
		&duration,
		&bitrate,
		&outputBytes,
		&entry.Outcome,
		&message,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Entry{}, err
	}
	entry.OutputPath = outputPath.String
	entry.DurationSeconds = duration.Float64
	entry.BitrateBPS = bitrate.Int64
	entry.OutputBytes = outputBytes.Int64
	entry.Message = message.String
	if started, err := parseTimeString(startedRaw); err == nil {
		entry.StartedAt = started
	}
	if finished, err := parseTimeString(finishedRaw); err == nil {
		entry.FinishedAt = finished
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int64) any {
	if value <= 0 {
		return nil
	}
	return value
}

func nullableFloat(value float64) any {
	if value <= 0 {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
