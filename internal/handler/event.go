package handler

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/necesitomasreviews/backend/internal/contextkeys"
	"github.com/necesitomasreviews/backend/internal/domain"
	"github.com/necesitomasreviews/backend/internal/service"
)

// EventHandler handles the public funnel endpoints and the premium-gated
// analytics endpoints.
type EventHandler struct {
	events *service.EventService
	stats  *service.StatsService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events *service.EventService, stats *service.StatsService) *EventHandler {
	return &EventHandler{events: events, stats: stats}
}

// Scan handles POST /api/events/cards/{cardId}/scan (public).
func (h *EventHandler) Scan(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardId")

	var req domain.ScanRequest
	if r.ContentLength > 0 {
		if err := DecodeJSON(r, &req); err != nil {
			Error(w, err)
			return
		}
	}

	resp, err := h.events.RecordScan(r.Context(), cardID, &req, service.RequestMeta{
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
	})
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, resp)
}

// ReviewStarted handles POST /api/events/cards/{cardId}/review-started (public).
func (h *EventHandler) ReviewStarted(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardId")

	var req domain.ScanRequest
	if r.ContentLength > 0 {
		if err := DecodeJSON(r, &req); err != nil {
			Error(w, err)
			return
		}
	}

	if err := h.events.RecordReviewStarted(r.Context(), cardID, &req); err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ReviewCompleted handles POST /api/events/cards/{cardId}/review-completed (public).
func (h *EventHandler) ReviewCompleted(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardId")

	var req domain.ReviewCompletedRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	if err := h.events.RecordReviewCompleted(r.Context(), cardID, &req); err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CardStats handles GET /api/events/cards/{cardId}/stats (auth + premium).
func (h *EventHandler) CardStats(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardId")
	userID, _ := r.Context().Value(contextkeys.UserID).(string)
	role, _ := r.Context().Value(contextkeys.UserRole).(string)

	stats, err := h.stats.CardStats(r.Context(), cardID, userID, role)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, stats)
}

// UserStats handles GET /api/events/user/stats (auth + premium).
func (h *EventHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(contextkeys.UserID).(string)

	stats, err := h.stats.UserStats(r.Context(), userID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, stats)
}

// clientIP returns the client IP, preferring proxy headers if available.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.SplitN(xff, ",", 2)
		return strings.TrimSpace(parts[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
