package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/necesitomasreviews/backend/internal/domain"
	"github.com/necesitomasreviews/backend/pkg/payment"
)

// Premium plan price in USD cents.
const premiumPriceCents int64 = 2990

// PremiumGate decides whether a user is entitled to analytics and real-time
// notifications.
type PremiumGate interface {
	RequireActivePremium(ctx context.Context, user *domain.User) error
}

// SubscriptionService manages the subscription lifecycle and implements the
// premium gate.
type SubscriptionService struct {
	subs    SubscriptionStore
	users   UserStore
	payment payment.Gateway
	now     func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(subs SubscriptionStore, users UserStore, gw payment.Gateway) *SubscriptionService {
	return &SubscriptionService{
		subs:    subs,
		users:   users,
		payment: gw,
		now:     time.Now,
	}
}

// SetNow overrides the clock. Tests only.
func (s *SubscriptionService) SetNow(now func() time.Time) {
	s.now = now
}

// RequireActivePremium passes admins unconditionally; everyone else needs a
// subscription that is both active and premium. A subscription whose end
// date has passed is flipped to expired here (lazy expiry) and the check is
// denied. Repeating the check after the flip keeps returning denied.
func (s *SubscriptionService) RequireActivePremium(ctx context.Context, user *domain.User) error {
	if domain.IsAdminRole(user.Role) {
		return nil
	}

	if user.SubscriptionID == nil || *user.SubscriptionID == "" {
		return domain.ErrSubscriptionGate("an active subscription is required", domain.ReasonSubscriptionRequired)
	}

	sub, err := s.subs.FindByID(ctx, *user.SubscriptionID)
	if err != nil {
		return domain.ErrInternal("failed to load subscription", err)
	}
	if sub == nil {
		return domain.ErrSubscriptionGate("a premium subscription is required", domain.ReasonPremiumRequired)
	}

	if sub.Status == domain.SubStatusExpired {
		return domain.ErrSubscriptionGate("your subscription has expired", domain.ReasonSubscriptionExpired)
	}
	if sub.Status != domain.SubStatusActive || sub.Plan != domain.PlanPremium {
		return domain.ErrSubscriptionGate("a premium subscription is required", domain.ReasonPremiumRequired)
	}

	if sub.EndDate != nil && s.now().After(*sub.EndDate) {
		if err := s.subs.ExpireIfActive(ctx, sub.ID); err != nil {
			return domain.ErrInternal("failed to expire subscription", err)
		}
		return domain.ErrSubscriptionGate("your subscription has expired", domain.ReasonSubscriptionExpired)
	}

	return nil
}

// HasActivePremium is the boolean form of the gate, used when deciding
// whether an event should fan out notifications.
func (s *SubscriptionService) HasActivePremium(ctx context.Context, user *domain.User) bool {
	return s.RequireActivePremium(ctx, user) == nil
}

// CreateCheckout creates a payment link for a premium purchase.
func (s *SubscriptionService) CreateCheckout(ctx context.Context, userID string, req *domain.CheckoutRequest) (*domain.PaymentLinkResponse, error) {
	orderID := uuid.New().String()

	paymentURL, err := s.payment.CreatePaymentLink(userID, req.PaymentMethod, orderID, premiumPriceCents)
	if err != nil {
		return nil, domain.ErrInternal("failed to create payment link", err)
	}

	return &domain.PaymentLinkResponse{
		PaymentURL: paymentURL,
		OrderID:    orderID,
	}, nil
}

// CreatePremium activates a one-month premium subscription. Any prior active
// subscription is canceled first so a user never holds two active records.
// Deliberately not idempotent: calling twice leaves the first canceled.
func (s *SubscriptionService) CreatePremium(ctx context.Context, userID, paymentMethod, paymentID string, autoRenew bool) (*domain.Subscription, error) {
	if err := s.subs.CancelActive(ctx, userID); err != nil {
		return nil, domain.ErrInternal("failed to cancel prior subscription", err)
	}

	now := s.now()
	end := now.AddDate(0, 1, 0)
	sub := &domain.Subscription{
		ID:            domain.NewSubscriptionID(),
		UserID:        userID,
		Plan:          domain.PlanPremium,
		Status:        domain.SubStatusActive,
		StartDate:     now,
		EndDate:       &end,
		AutoRenew:     autoRenew,
		PaymentMethod: paymentMethod,
		PaymentID:     paymentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, domain.ErrInternal("failed to create subscription", err)
	}

	if err := s.users.UpdateSubscriptionID(ctx, userID, &sub.ID); err != nil {
		return nil, domain.ErrInternal("failed to update subscription reference", err)
	}

	return sub, nil
}

// HandlePaymentWebhook processes a payment gateway notification.
func (s *SubscriptionService) HandlePaymentWebhook(ctx context.Context, userID, paymentMethod, paymentID, status string) error {
	if status != payment.StatusSuccess {
		return nil
	}
	_, err := s.CreatePremium(ctx, userID, paymentMethod, paymentID, false)
	return err
}

// Cancel transitions the user's active subscription to canceled. Terminal.
func (s *SubscriptionService) Cancel(ctx context.Context, userID string) error {
	sub, err := s.subs.FindActiveByUser(ctx, userID)
	if err != nil {
		return domain.ErrInternal("failed to load subscription", err)
	}
	if sub == nil {
		return domain.ErrNotFound("no active subscription")
	}
	if err := s.subs.CancelActive(ctx, userID); err != nil {
		return domain.ErrInternal("failed to cancel subscription", err)
	}
	return nil
}

// GetCurrent returns the user's active subscription with lazy expiry applied,
// or nil when none is active.
func (s *SubscriptionService) GetCurrent(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := s.subs.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load subscription", err)
	}
	if sub == nil {
		return nil, nil
	}
	if sub.EndDate != nil && s.now().After(*sub.EndDate) {
		if err := s.subs.ExpireIfActive(ctx, sub.ID); err != nil {
			return nil, domain.ErrInternal("failed to expire subscription", err)
		}
		sub.Status = domain.SubStatusExpired
	}
	return sub, nil
}
