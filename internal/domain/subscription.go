package domain

import (
	"time"

	"github.com/google/uuid"
)

// Subscription plans and statuses. active -> canceled and active -> expired
// are the only transitions; both are terminal.
const (
	PlanBasic   = "basic"
	PlanPremium = "premium"

	SubStatusActive   = "active"
	SubStatusCanceled = "canceled"
	SubStatusExpired  = "expired"
)

// Subscription is an entitlement record. At most one subscription per user is
// active at a time; creating a new one cancels the prior active record.
type Subscription struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Plan          string     `json:"plan"`
	Status        string     `json:"status"`
	StartDate     time.Time  `json:"startDate"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	AutoRenew     bool       `json:"autoRenew"`
	PaymentMethod string     `json:"paymentMethod"`
	PaymentID     string     `json:"paymentId"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// NewSubscriptionID generates a new subscription ID.
func NewSubscriptionID() string {
	return uuid.New().String()
}

// CheckoutRequest is the input for POST /api/subscription/checkout.
type CheckoutRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=paypal webpay mercadopago"`
	AutoRenew     bool   `json:"autoRenew"`
}

// PaymentLinkResponse returns the URL to redirect the user to for payment.
type PaymentLinkResponse struct {
	PaymentURL string `json:"paymentUrl"`
	OrderID    string `json:"orderId"`
}
