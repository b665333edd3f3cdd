package handlers

import (
	"net/http"
	"time"

	"lurelab/internal/callback"
	"lurelab/internal/infrastructure/cache"
	"lurelab/internal/session"
	"lurelab/internal/streaming"
	"lurelab/pkg/logger"
)

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	store      *session.Store
	dispatcher *callback.Dispatcher
	events     *streaming.EventBus
	cache      *cache.RedisCache
	logger     *logger.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(store *session.Store, d *callback.Dispatcher, ev *streaming.EventBus, c *cache.RedisCache, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		store:      store,
		dispatcher: d,
		events:     ev,
		cache:      c,
		logger:     log.WithComponent("stats"),
	}
}

// Stats is the operational summary of the running engine.
type Stats struct {
	ActiveSessions     int            `json:"active_sessions"`
	EvictedSessions    int64          `json:"evicted_sessions"`
	ScamSessions       int            `json:"scam_sessions"`
	SessionsByScamType map[string]int `json:"sessions_by_scam_type"`
	IntelligenceItems  int            `json:"intelligence_items"`
	CallbacksDelivered int64          `json:"callbacks_delivered"`
	CallbacksFailed    int64          `json:"callbacks_failed"`
	EventsPublished    int64          `json:"events_published"`
	Timestamp          time.Time      `json:"timestamp"`
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	// Serve from cache when Redis is around; computing walks every session.
	if h.cache != nil {
		var cached Stats
		if err := h.cache.GetJSON(r.Context(), cache.KeyStats, &cached); err == nil {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	stats := h.computeStats()

	if h.cache != nil {
		_ = h.cache.SetJSON(r.Context(), cache.KeyStats, stats, 30*time.Second)
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *StatsHandler) computeStats() Stats {
	stats := Stats{
		ActiveSessions:     h.store.Len(),
		EvictedSessions:    h.store.Evictions(),
		SessionsByScamType: make(map[string]int),
		Timestamp:          time.Now().UTC(),
	}

	for _, s := range h.store.List() {
		if s.ScamDetected {
			stats.ScamSessions++
			stats.SessionsByScamType[string(s.ScamType)]++
		}
		stats.IntelligenceItems += s.Intelligence.CountFinancial()
	}

	if h.dispatcher != nil {
		stats.CallbacksDelivered = h.dispatcher.Delivered()
		stats.CallbacksFailed = h.dispatcher.Failed()
	}
	if h.events != nil {
		stats.EventsPublished = h.events.Published()
	}
	return stats
}
