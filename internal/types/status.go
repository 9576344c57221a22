package types

// StatusData is the payload of one job status event.
type StatusData struct {
	JobID    string `json:"jobId"`
	Status   string `json:"status"`
	Line     string `json:"line,omitempty"`
	ExitCode int    `json:"exitCode"`
	ErrorMsg string `json:"errorMsg,omitempty"`
}

// StatusMessage represents the full message envelope
type StatusMessage struct {
	Pattern string     `json:"pattern"`
	Data    StatusData `json:"data"`
}

const PROCESSING = "PROCESSING"
const PROCESSED = "PROCESSED"
const FAILED = "FAILED"
