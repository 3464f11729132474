package handler

import (
	"net/http"
	"time"
	"tracking/internal/protocol/server"
)

type SessionLister interface {
	Sessions() []server.SessionInfo
}

type SessionHandler struct {
	gatewayID string
	sessions  SessionLister
	started   time.Time
}

func NewSessionHandler(gatewayID string, sessions SessionLister) *SessionHandler {
	return &SessionHandler{gatewayID: gatewayID, sessions: sessions, started: time.Now()}
}

func (h *SessionHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"gateway_id": h.gatewayID,
		"sessions":   len(h.sessions.Sessions()),
		"uptime":     time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.Sessions()
	if sessions == nil {
		sessions = []server.SessionInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"gateway_id": h.gatewayID,
		"count":      len(sessions),
		"sessions":   sessions,
	})
}
