package handler

import (
	"net/http"

	"github.com/necesitomasreviews/backend/internal/contextkeys"
	"github.com/necesitomasreviews/backend/internal/domain"
	"github.com/necesitomasreviews/backend/internal/service"
	"github.com/necesitomasreviews/backend/pkg/payment"
)

// SubscriptionHandler handles subscription lifecycle endpoints.
type SubscriptionHandler struct {
	svc *service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(svc *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

// CreateCheckout handles POST /api/subscription/checkout.
func (h *SubscriptionHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || userID == "" {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req domain.CheckoutRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	resp, err := h.svc.CreateCheckout(r.Context(), userID, &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, resp)
}

// webhookPayload is the parsed gateway notification.
type webhookPayload struct {
	UserID        string `json:"userId"`
	PaymentMethod string `json:"paymentMethod"`
	PaymentID     string `json:"paymentId"`
	Status        string `json:"status"`
}

// Webhook handles POST /api/subscription/webhook (public, gateway-signed).
func (h *SubscriptionHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req webhookPayload
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	if err := h.svc.HandlePaymentWebhook(r.Context(), req.UserID, req.PaymentMethod, req.PaymentID, req.Status); err != nil {
		Error(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Simulate handles POST /api/subscription/simulate. Admin only, gated in the router.
func (h *SubscriptionHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || userID == "" {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	sub, err := h.svc.CreatePremium(r.Context(), userID, "simulated", payment.StatusSuccess, false)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, sub)
}

// Get handles GET /api/subscription.
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || userID == "" {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	sub, err := h.svc.GetCurrent(r.Context(), userID)
	if err != nil {
		Error(w, err)
		return
	}

	if sub == nil {
		JSON(w, http.StatusOK, map[string]interface{}{"status": "none"})
		return
	}

	JSON(w, http.StatusOK, sub)
}

// Cancel handles POST /api/subscription/cancel.
func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || userID == "" {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if err := h.svc.Cancel(r.Context(), userID); err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]bool{"success": true})
}
