package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/necesitomasreviews/backend/internal/domain"
)

const subscriptionColumns = `id, user_id, plan, status, start_date, end_date, auto_renew, payment_method, payment_id, created_at, updated_at`

// SubscriptionRepository handles database operations for subscriptions.
type SubscriptionRepository struct {
	db *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.Plan, &sub.Status,
		&sub.StartDate, &sub.EndDate, &sub.AutoRenew,
		&sub.PaymentMethod, &sub.PaymentID,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}
	return &sub, nil
}

// Create inserts a new subscription record.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan, status, start_date, end_date, auto_renew, payment_method, payment_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		sub.ID, sub.UserID, sub.Plan, sub.Status,
		sub.StartDate, sub.EndDate, sub.AutoRenew,
		sub.PaymentMethod, sub.PaymentID,
		sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// FindByID returns a subscription by ID.
func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*domain.Subscription, error) {
	row := r.db.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	return scanSubscription(row)
}

// FindActiveByUser returns the user's active subscription, or nil.
func (r *SubscriptionRepository) FindActiveByUser(ctx context.Context, userID string) (*domain.Subscription, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 AND status = 'active' ORDER BY created_at DESC LIMIT 1`,
		userID,
	)
	return scanSubscription(row)
}

// CancelActive cancels every active subscription of the user. The status
// guard makes the transition safe under concurrent purchases.
func (r *SubscriptionRepository) CancelActive(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE subscriptions SET status = 'canceled', auto_renew = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND status = 'active'
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	return nil
}

// ExpireIfActive flips a subscription from active to expired. A no-op when
// the subscription already left the active state, so repeated lazy-expiry
// checks stay idempotent.
func (r *SubscriptionRepository) ExpireIfActive(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE subscriptions SET status = 'expired', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, id)
	if err != nil {
		return fmt.Errorf("failed to expire subscription: %w", err)
	}
	return nil
}

// CountActive returns the number of active subscriptions (admin dashboard).
func (r *SubscriptionRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE status = 'active'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return count, nil
}
