package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/necesitomasreviews/backend/internal/contextkeys"
	"github.com/necesitomasreviews/backend/internal/domain"
	"github.com/necesitomasreviews/backend/internal/service"
)

// CardHandler handles card and business management endpoints.
type CardHandler struct {
	cards *service.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cards *service.CardService) *CardHandler {
	return &CardHandler{cards: cards}
}

func requesterFrom(r *http.Request) (userID, role string) {
	userID, _ = r.Context().Value(contextkeys.UserID).(string)
	role, _ = r.Context().Value(contextkeys.UserRole).(string)
	return userID, role
}

// List handles GET /api/cards.
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := requesterFrom(r)

	cards, err := h.cards.ListCards(r.Context(), userID)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, cards)
}

// Create handles POST /api/cards.
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := requesterFrom(r)

	var req domain.CreateCardRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	card, err := h.cards.CreateCard(r.Context(), userID, &req)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusCreated, card)
}

// GetByID handles GET /api/cards/{id}.
func (h *CardHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, role := requesterFrom(r)

	card, err := h.cards.GetCard(r.Context(), chi.URLParam(r, "id"), userID, role)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, card)
}

// Update handles PUT /api/cards/{id}.
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, role := requesterFrom(r)

	var req domain.UpdateCardRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	card, err := h.cards.UpdateCard(r.Context(), chi.URLParam(r, "id"), userID, role, &req)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, card)
}

// UpdateStatus handles PUT /api/cards/{id}/status.
func (h *CardHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, role := requesterFrom(r)

	var req domain.UpdateCardStatusRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	card, err := h.cards.UpdateCardStatus(r.Context(), chi.URLParam(r, "id"), userID, role, req.Active)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, card)
}

// Delete handles DELETE /api/cards/{id}.
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, role := requesterFrom(r)

	if err := h.cards.DeleteCard(r.Context(), chi.URLParam(r, "id"), userID, role); err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListBusinesses handles GET /api/businesses.
func (h *CardHandler) ListBusinesses(w http.ResponseWriter, r *http.Request) {
	userID, _ := requesterFrom(r)

	businesses, err := h.cards.ListBusinesses(r.Context(), userID)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, businesses)
}

// CreateBusiness handles POST /api/businesses.
func (h *CardHandler) CreateBusiness(w http.ResponseWriter, r *http.Request) {
	userID, _ := requesterFrom(r)

	var req domain.CreateBusinessRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	business, err := h.cards.CreateBusiness(r.Context(), userID, &req)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusCreated, business)
}

// UpdateBusiness handles PUT /api/businesses/{id}.
func (h *CardHandler) UpdateBusiness(w http.ResponseWriter, r *http.Request) {
	userID, role := requesterFrom(r)

	var req domain.CreateBusinessRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	business, err := h.cards.UpdateBusiness(r.Context(), chi.URLParam(r, "id"), userID, role, &req)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, business)
}
