package streaming

import (
	"time"

	"github.com/google/uuid"

	"lurelab/internal/domain/models"
)

// EventType represents the type of engagement event
type EventType string

const (
	EventTypeCallbackCreated EventType = "callback_created"
	EventTypeCallbackUpdated EventType = "callback_updated"
	EventTypeSessionEvicted  EventType = "session_evicted"
)

// EngagementEvent is a real-time notification about a honeypot session.
type EngagementEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	SessionID string `json:"session_id"`
	Turn      int    `json:"turn,omitempty"`

	ScamType   models.ScamType `json:"scam_type,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewDecisionEvent creates the event for a fired callback decision.
func NewDecisionEvent(sessionID string, kind models.DecisionKind, scamType models.ScamType, confidence float64, turn int) *EngagementEvent {
	eventType := EventTypeCallbackCreated
	if kind == models.DecisionUpdate {
		eventType = EventTypeCallbackUpdated
	}
	return &EngagementEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		SessionID:  sessionID,
		Turn:       turn,
		ScamType:   scamType,
		Confidence: confidence,
	}
}

// NewEvictionEvent creates the event for a session dropped by the store.
func NewEvictionEvent(sessionID string) *EngagementEvent {
	return &EngagementEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeSessionEvicted,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
	}
}
