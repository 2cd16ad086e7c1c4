package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// TranscodeRecord describes one finished transcode.
type TranscodeRecord struct {
	ID              string  `json:"id"`
	InputPath       string  `json:"inputPath"`
	OutputPath      string  `json:"outputPath,omitempty"`
	TargetMB        int     `json:"targetMb"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	BitrateBPS      int64   `json:"bitrateBps,omitempty"`
	OutputBytes     int64   `json:"outputBytes,omitempty"`
	Outcome         string  `json:"outcome"`
	Message         string  `json:"message,omitempty"`
	StartedAt       string  `json:"startedAt,omitempty"`
	FinishedAt      string  `json:"finishedAt,omitempty"`
	ElapsedSeconds  float64 `json:"elapsedSeconds"`
}

// ProgressUpdate is a transport-friendly progress.Event.
type ProgressUpdate struct {
	Kind       string  `json:"kind"`
	Percent    float64 `json:"percent"`
	Bytes      int64   `json:"bytes,omitempty"`
	Total      int64   `json:"total,omitempty"`
	OutputPath string  `json:"outputPath,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// ProbeReport summarizes container metadata for one input file.
type ProbeReport struct {
	Path            string  `json:"path"`
	Container       string  `json:"container"`
	DurationSeconds float64 `json:"durationSeconds"`
	SizeBytes       int64   `json:"sizeBytes"`
	BitRate         int64   `json:"bitRate"`
	VideoCodec      string  `json:"videoCodec,omitempty"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	AudioStreams    int     `json:"audioStreams"`
}
