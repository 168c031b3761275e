package domain

import (
	"time"

	"github.com/google/uuid"
)

// Funnel event types. A tap records a scan; the review journey then moves
// through review_started to review_completed.
const (
	EventScan            = "scan"
	EventReviewStarted   = "review_started"
	EventReviewCompleted = "review_completed"
)

// Location is an optional geo position attached to an event.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DeviceInfo is coarse client information parsed from the User-Agent.
type DeviceInfo struct {
	Type    string `json:"type"`
	Browser string `json:"browser"`
	OS      string `json:"os"`
}

// Event is one immutable funnel record. Events are append-only: created by
// the public scan/review endpoints, never updated or deleted.
type Event struct {
	ID           string      `json:"id"`
	CardID       string      `json:"cardId"`
	UserID       string      `json:"userId"`
	BusinessID   string      `json:"businessId"`
	Type         string      `json:"eventType"`
	Timestamp    time.Time   `json:"timestamp"`
	Location     *Location   `json:"location,omitempty"`
	Device       *DeviceInfo `json:"deviceInfo,omitempty"`
	IPAddress    *string     `json:"ipAddress,omitempty"`
	ReviewID     *string     `json:"reviewId,omitempty"`
	ReviewRating *int        `json:"reviewRating,omitempty"`
}

// NewEventID generates a new event ID.
func NewEventID() string {
	return uuid.New().String()
}

// ScanRequest is the body for the public scan / review-started endpoints.
type ScanRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Loc converts the optional coordinate pair to a Location, or nil when
// either coordinate is absent.
func (r *ScanRequest) Loc() *Location {
	if r == nil || r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &Location{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

// ReviewCompletedRequest is the body for the review-completed endpoint.
type ReviewCompletedRequest struct {
	ReviewID     string   `json:"reviewId" validate:"required"`
	ReviewRating *int     `json:"reviewRating" validate:"omitempty,gte=1,lte=5"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// ScanResponse carries the redirect target returned to the tapping device.
type ScanResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// EventSummary is the reduced field set used in recent-event listings.
type EventSummary struct {
	ID           string    `json:"id"`
	Type         string    `json:"eventType"`
	Timestamp    time.Time `json:"timestamp"`
	ReviewRating *int      `json:"reviewRating,omitempty"`
}
