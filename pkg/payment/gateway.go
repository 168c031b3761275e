package payment

import "time"

// Gateway defines the interface for payment providers (PayPal, WebPay,
// MercadoPago). The backend only ever sees the checkout link and the webhook
// outcome; provider internals stay behind this boundary.
type Gateway interface {
	// CreatePaymentLink creates a checkout session/link for a premium purchase.
	CreatePaymentLink(userID, method, orderID string, amountCents int64) (string, error)
	// VerifySignature verifies the webhook signature (implementation specific).
	VerifySignature(payload []byte, signature string) bool
}

// MockGateway is a dummy implementation for development and tests.
type MockGateway struct{}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (g *MockGateway) CreatePaymentLink(userID, method, orderID string, amountCents int64) (string, error) {
	return "https://example.com/pay?order_id=" + orderID, nil
}

func (g *MockGateway) VerifySignature(payload []byte, signature string) bool {
	return true
}

// Transaction status constants reported through the webhook.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Transaction represents a payment transaction.
type Transaction struct {
	ID        string
	OrderID   string
	Amount    int64
	Status    string
	CreatedAt time.Time
}
