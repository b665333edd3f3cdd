package handlers

import (
	"encoding/json"
	"net/http"

	"lurelab/internal/callback"
	"lurelab/internal/config"
	"lurelab/internal/engine"
	"lurelab/internal/infrastructure/cache"
	"lurelab/internal/session"
	"lurelab/internal/streaming"
	"lurelab/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health   *HealthHandler
	Honeypot *HoneypotHandler
	Sessions *SessionsHandler
	Stats    *StatsHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Config     config.Config
	Engine     *engine.Engine
	Store      *session.Store
	Dispatcher *callback.Dispatcher
	Events     *streaming.EventBus
	Cache      *cache.RedisCache
	Logger     *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Config.App, deps.Cache, deps.Logger),
		Honeypot: NewHoneypotHandler(deps.Engine, deps.Config.Persona, deps.Logger),
		Sessions: NewSessionsHandler(deps.Engine, deps.Logger),
		Stats:    NewStatsHandler(deps.Store, deps.Dispatcher, deps.Events, deps.Cache, deps.Logger),
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
