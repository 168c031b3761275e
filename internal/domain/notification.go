package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationData is the typed payload echoing the triggering event. The
// EventType on the enclosing Notification tags which fields are meaningful:
// Rating and ReviewID only for review_completed.
type NotificationData struct {
	CardName     string  `json:"cardName"`
	BusinessName string  `json:"businessName"`
	ReviewID     *string `json:"reviewId,omitempty"`
	Rating       *int    `json:"rating,omitempty"`
}

// Notification is one delivered alert. Read starts false and only ever
// transitions to true.
type Notification struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	CardID     string           `json:"cardId"`
	BusinessID string           `json:"businessId"`
	EventType  string           `json:"eventType"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Read       bool             `json:"read"`
	Data       NotificationData `json:"data"`
	Timestamp  time.Time        `json:"timestamp"`
}

// NewNotificationID generates a new notification ID.
func NewNotificationID() string {
	return uuid.New().String()
}

// MarkReadRequest is the input for PUT /api/notifications/read.
type MarkReadRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// FCMTokenRequest is the input for POST|DELETE /api/notifications/fcm-token.
type FCMTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// NotificationPage is a paginated notification listing.
type NotificationPage struct {
	Notifications []*Notification `json:"notifications"`
	Total         int             `json:"total"`
	Page          int             `json:"page"`
	Limit         int             `json:"limit"`
	UnreadCount   int             `json:"unreadCount"`
}
