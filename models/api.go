package models

// ChatMessage is one turn of conversation history sent with a search request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryRequest is the body of POST /search.
type QueryRequest struct {
	Query     string        `json:"query" binding:"required"`
	History   []ChatMessage `json:"history,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	SourceName string `json:"source_name"`
	Status     string `json:"status"`
	SavedCount int    `json:"saved_count,omitempty"`
	JobID      string `json:"job_id,omitempty"` // set for async video processing
	Message    string `json:"message"`
}

// Ingestion job status constants, mirrored into the Redis status tracker.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)
