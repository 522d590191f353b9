package model

import (
	"time"
)

// Document represents an uploaded contract and its analysis state. The
// clause list is owned by the document store; handlers only read it.
type Document struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	DocType   string    `json:"doc_type"`
	Tenant    string    `json:"tenant"`
	Status    string    `json:"status"` // pending, processing, completed, failed
	Clauses   []Clause  `json:"clauses,omitempty"`
	ErrorMsg  string    `json:"error_msg,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document analysis status constants
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
