package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"lurelab/internal/config"
	"lurelab/internal/domain/models"
	"lurelab/internal/engine"
	"lurelab/pkg/logger"
)

// HoneypotHandler handles the message ingestion endpoint.
type HoneypotHandler struct {
	engine  *engine.Engine
	persona config.PersonaConfig
	logger  *logger.Logger
}

// NewHoneypotHandler creates a new HoneypotHandler
func NewHoneypotHandler(eng *engine.Engine, persona config.PersonaConfig, log *logger.Logger) *HoneypotHandler {
	return &HoneypotHandler{
		engine:  eng,
		persona: persona,
		logger:  log.WithComponent("honeypot-handler"),
	}
}

// messageDTO is one transcript message on the wire.
type messageDTO struct {
	SenderRole      string `json:"senderRole"`
	Text            string `json:"text"`
	TimestampMillis int64  `json:"timestampMillis,omitempty"`
}

// processRequest is the inbound wire schema. Optional fields default rather
// than fail: absent history is empty, a bad timestamp stays zero, an unknown
// sender role is treated as the counterpart.
type processRequest struct {
	SessionID           string       `json:"sessionId"`
	SenderRole          string       `json:"senderRole"`
	Text                string       `json:"text"`
	TimestampMillis     int64        `json:"timestampMillis,omitempty"`
	ConversationHistory []messageDTO `json:"conversationHistory,omitempty"`
}

type processResponse struct {
	SessionID    string          `json:"sessionId"`
	Reply        string          `json:"reply,omitempty"`
	ScamDetected bool            `json:"scamDetected"`
	Confidence   float64         `json:"confidence"`
	ScamType     models.ScamType `json:"scamType"`
	TurnCount    int             `json:"turnCount"`
	Decision     string          `json:"decision"`
	Reason       string          `json:"reason,omitempty"`
}

func senderRole(raw string) models.SenderRole {
	if raw == string(models.RoleUser) {
		return models.RoleUser
	}
	// Unknown roles are scored as hostile; missing a scammer message costs
	// more than over-scoring a mislabeled one.
	return models.RoleScammer
}

func toTime(millis int64) time.Time {
	if millis <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis)
}

// Process handles POST /honeypot. Validation happens once here; downstream
// components trust the request. Only an unusable envelope (no session id or
// no text) is rejected; everything past the boundary fails open.
func (h *HoneypotHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if req.Text == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	inbound := &models.InboundRequest{
		SessionID: req.SessionID,
		Sender:    senderRole(req.SenderRole),
		Text:      req.Text,
		Timestamp: toTime(req.TimestampMillis),
	}
	for _, m := range req.ConversationHistory {
		inbound.History = append(inbound.History, models.Message{
			Sender:    senderRole(m.SenderRole),
			Text:      m.Text,
			Timestamp: toTime(m.TimestampMillis),
		})
	}

	res, err := h.engine.Process(r.Context(), inbound)
	if err != nil {
		// The persona must answer no matter what went wrong internally.
		h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("pipeline error")
		respondJSON(w, http.StatusOK, processResponse{
			SessionID: req.SessionID,
			Reply:     "Sorry, the line is bad. Can you repeat that?",
			ScamType:  models.ScamTypeNone,
			Decision:  string(models.DecisionNone),
		})
		return
	}

	respondJSON(w, http.StatusOK, processResponse{
		SessionID:    res.SessionID,
		Reply:        res.Reply,
		ScamDetected: res.ScamDetected,
		Confidence:   res.Confidence,
		ScamType:     res.ScamType,
		TurnCount:    res.TurnCount,
		Decision:     string(res.Decision.Kind),
		Reason:       res.Decision.Reason,
	})
}
