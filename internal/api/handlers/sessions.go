package handlers

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"lurelab/internal/domain/models"
	"lurelab/internal/engine"
	"lurelab/pkg/logger"
)

// SessionsHandler exposes read-only session inspection endpoints.
type SessionsHandler struct {
	engine *engine.Engine
	logger *logger.Logger
}

// NewSessionsHandler creates a new SessionsHandler
func NewSessionsHandler(eng *engine.Engine, log *logger.Logger) *SessionsHandler {
	return &SessionsHandler{
		engine: eng,
		logger: log.WithComponent("sessions-handler"),
	}
}

// sessionSummary is the list-view projection of a session.
type sessionSummary struct {
	ID            string               `json:"id"`
	TurnCount     int                  `json:"turnCount"`
	ScamDetected  bool                 `json:"scamDetected"`
	ScamType      models.ScamType      `json:"scamType"`
	Confidence    float64              `json:"confidence"`
	IntelItems    int                  `json:"intelItems"`
	CallbackState models.CallbackState `json:"callbackState"`
	LastActivity  string               `json:"lastActivity"`
}

// List handles GET /api/v1/sessions
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.engine.Sessions()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})

	summaries := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, sessionSummary{
			ID:            s.ID,
			TurnCount:     s.TurnCount,
			ScamDetected:  s.ScamDetected,
			ScamType:      s.ScamType,
			Confidence:    s.RunningConfidence,
			IntelItems:    s.Intelligence.CountFinancial(),
			CallbackState: s.CallbackState,
			LastActivity:  s.LastActivity.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"total":    len(summaries),
		"sessions": summaries,
	})
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, ok := h.engine.SessionSnapshot(id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"session": snap,
		"report":  engine.BuildPayload(snap),
	})
}
