package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/necesitomasreviews/backend/internal/domain"
	"github.com/necesitomasreviews/backend/internal/repository"
	"github.com/necesitomasreviews/backend/internal/service"
)

type AdminHandler struct {
	db      *pgxpool.Pool
	authSvc *service.AuthService
	events  *repository.EventRepository
	subs    *repository.SubscriptionRepository
}

func NewAdminHandler(db *pgxpool.Pool, authSvc *service.AuthService, events *repository.EventRepository, subs *repository.SubscriptionRepository) *AdminHandler {
	return &AdminHandler{db: db, authSvc: authSvc, events: events, subs: subs}
}

// GetStats returns platform-wide funnel metrics.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var usersCount, cardsCount int
	if err := h.db.QueryRow(r.Context(), "SELECT COUNT(*) FROM users").Scan(&usersCount); err != nil {
		log.Printf("Failed to count users: %v", err)
	}
	if err := h.db.QueryRow(r.Context(), "SELECT COUNT(*) FROM cards").Scan(&cardsCount); err != nil {
		log.Printf("Failed to count cards: %v", err)
	}

	scansCount, err := h.events.CountByType(r.Context(), domain.EventScan)
	if err != nil {
		log.Printf("Failed to count scans: %v", err)
	}
	reviewsCount, err := h.events.CountByType(r.Context(), domain.EventReviewCompleted)
	if err != nil {
		log.Printf("Failed to count reviews: %v", err)
	}
	subCount, err := h.subs.CountActive(r.Context())
	if err != nil {
		log.Printf("Failed to count subscriptions: %v", err)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"users":         usersCount,
		"cards":         cardsCount,
		"scans":         scansCount,
		"reviews":       reviewsCount,
		"subscriptions": subCount,
	})
}

// ListUsers returns all users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authSvc.ListUsers(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, users)
}

// DeleteUser removes an account. Admin accounts cannot be deleted.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.authSvc.DeleteUser(r.Context(), id); err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}
