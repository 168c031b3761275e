package service

import (
	"context"

	"github.com/necesitomasreviews/backend/internal/domain"
)

// Narrow store interfaces consumed by the services. The pgx repositories in
// internal/repository satisfy them; tests supply in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	ListAll(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, id string) error
	UpdateSubscriptionID(ctx context.Context, userID string, subscriptionID *string) error
	AddFCMToken(ctx context.Context, userID, token string) error
	RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error
	UpdatePreferences(ctx context.Context, userID string, p domain.NotificationPreferences) error
}

type CardStore interface {
	Create(ctx context.Context, c *domain.Card) error
	FindByID(ctx context.Context, id string) (*domain.Card, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Card, error)
	UpdateName(ctx context.Context, id, name string) error
	UpdateStatus(ctx context.Context, id string, active bool) error
	IncrementReviewCount(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type BusinessStore interface {
	Create(ctx context.Context, b *domain.Business) error
	FindByID(ctx context.Context, id string) (*domain.Business, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Business, error)
	Update(ctx context.Context, b *domain.Business) error
}

type EventStore interface {
	Append(ctx context.Context, e *domain.Event) error
	ListByCard(ctx context.Context, cardID string) ([]*domain.Event, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string, page, limit int, unreadOnly bool) ([]*domain.Notification, error)
	ListUnread(ctx context.Context, userID string, limit int) ([]*domain.Notification, error)
	Count(ctx context.Context, userID string, unreadOnly bool) (int, error)
	CountOwnedBy(ctx context.Context, userID string, ids []string) (int, error)
	MarkRead(ctx context.Context, userID string, ids []string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, id string) (bool, error)
}

type SubscriptionStore interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	FindByID(ctx context.Context, id string) (*domain.Subscription, error)
	FindActiveByUser(ctx context.Context, userID string) (*domain.Subscription, error)
	CancelActive(ctx context.Context, userID string) error
	ExpireIfActive(ctx context.Context, id string) error
}
