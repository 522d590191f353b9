package model

import "time"

// Video generation job states as reported by the engine.
const (
	VideoQueued     = "queued"
	VideoInProgress = "in_progress"
	VideoCompleted  = "completed"
	VideoFailed     = "failed"
)

// VideoJob tracks an asynchronous video-summary job started for a document.
type VideoJob struct {
	JobID      string    `json:"job_id"`
	DocumentID string    `json:"document_id"`
	Tenant     string    `json:"tenant"`
	Status     string    `json:"status"`
	VideoURL   string    `json:"video_url,omitempty"`
	ErrorMsg   string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Terminal reports whether the job has reached a final state.
func (j *VideoJob) Terminal() bool {
	return j.Status == VideoCompleted || j.Status == VideoFailed
}
