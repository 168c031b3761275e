package middleware

import (
	"net/http"

	"github.com/necesitomasreviews/backend/internal/contextkeys"
	"github.com/necesitomasreviews/backend/internal/domain"
	"github.com/necesitomasreviews/backend/internal/handler"
	"github.com/necesitomasreviews/backend/internal/service"
)

// AdminOnly ensures the user holds an admin role (regional or super).
// Must be used AFTER Auth which sets contextkeys.UserRole in context.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(contextkeys.UserRole).(string)
		if !ok || !domain.IsAdminRole(role) {
			handler.JSON(w, http.StatusForbidden, map[string]string{"error": "forbidden: admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Premium gates a route behind an active premium subscription (or admin
// role). The specific denial reason (no subscription, wrong plan, expired)
// is surfaced to the client as a machine-readable code.
func Premium(users service.UserStore, gate service.PremiumGate) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := r.Context().Value(contextkeys.UserID).(string)
			if !ok || userID == "" {
				handler.JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				handler.Error(w, domain.ErrInternal("failed to load user", err))
				return
			}
			if user == nil {
				handler.JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}

			if err := gate.RequireActivePremium(r.Context(), user); err != nil {
				handler.Error(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
