package models

import "time"

// SenderRole identifies who authored a conversation message.
type SenderRole string

const (
	RoleScammer SenderRole = "scammer"
	RoleUser    SenderRole = "user"
)

// Message is one turn of a conversation as received at the boundary.
type Message struct {
	Sender    SenderRole `json:"sender"`
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp,omitempty"`
}

// InboundRequest is the validated per-message input to the engine. The API
// layer validates it once; missing history is empty, a malformed timestamp
// stays zero.
type InboundRequest struct {
	SessionID string     `json:"session_id"`
	Sender    SenderRole `json:"sender"`
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
	History   []Message  `json:"history,omitempty"`
}
