package types

// CopyURLRequest is the body of POST /copyurl.
type CopyURLRequest struct {
	SourceURL   string `json:"source_url"`
	Destination string `json:"destination"`
}

type CopyURLResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

type ProgressResponse struct {
	Progress string `json:"progress"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Jobs   int    `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	MsgCopyStarted        = "Copyurl operation started"
	ErrMsgMissingParams   = "Source URL and destination are required"
	ErrMsgConfigURLNotSet = "RCLONE_CONFIG_URL environment variable not set"
	ErrMsgConfigDownload  = "Failed to download rclone configuration"
)
