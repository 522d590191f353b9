package model

// ChatSession is a saved assistant conversation as listed by the engine.
type ChatSession struct {
	SessionID   string `json:"session_id"`
	Title       string `json:"title,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// ChatMessage is one turn in a session transcript, append-only and
// chronological.
type ChatMessage struct {
	Role      string `json:"role"` // user, assistant
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}
