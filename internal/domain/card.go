package domain

import (
	"time"

	"github.com/google/uuid"
)

// Business is the review destination a card points at. GoogleReviewURL takes
// priority; GooglePlaceID is the fallback for constructing a write-review
// link. Both may be absent (external collaborator data).
type Business struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Name            string    `json:"name"`
	GoogleReviewURL *string   `json:"googleReviewUrl,omitempty"`
	GooglePlaceID   *string   `json:"googlePlaceId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ReviewURL resolves the redirect target for a scan, or "" when the business
// carries neither a direct URL nor a place id.
func (b *Business) ReviewURL() string {
	if b.GoogleReviewURL != nil && *b.GoogleReviewURL != "" {
		return *b.GoogleReviewURL
	}
	if b.GooglePlaceID != nil && *b.GooglePlaceID != "" {
		return "https://search.google.com/local/writereview?placeid=" + *b.GooglePlaceID
	}
	return ""
}

// Card is a physical NFC tag bound to a business. ReviewCount is a
// denormalized counter incremented on review completion.
type Card struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	BusinessID  string    `json:"businessId"`
	Name        string    `json:"name"`
	Active      bool      `json:"active"`
	ReviewCount int       `json:"reviewCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewCardID generates a new card ID.
func NewCardID() string {
	return uuid.New().String()
}

// CreateCardRequest is the input for POST /api/cards.
type CreateCardRequest struct {
	Name       string `json:"name" validate:"required"`
	BusinessID string `json:"businessId" validate:"required,uuid4"`
}

// UpdateCardRequest is the input for PUT /api/cards/{id}.
type UpdateCardRequest struct {
	Name string `json:"name" validate:"required"`
}

// UpdateCardStatusRequest is the input for PUT /api/cards/{id}/status.
type UpdateCardStatusRequest struct {
	Active bool `json:"active"`
}

// CreateBusinessRequest is the input for POST /api/businesses.
type CreateBusinessRequest struct {
	Name            string  `json:"name" validate:"required"`
	GoogleReviewURL *string `json:"googleReviewUrl" validate:"omitempty,url"`
	GooglePlaceID   *string `json:"googlePlaceId"`
}
