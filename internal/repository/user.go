package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/necesitomasreviews/backend/internal/domain"
)

const userColumns = `id, email, password, name, role, subscription_id, fcm_tokens, pref_email, pref_push, pref_daily, created_at, updated_at`

// UserRepository handles database operations for users.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.Name, &u.Role, &u.SubscriptionID,
		&u.FCMTokens,
		&u.Preferences.EmailNotifications, &u.Preferences.PushNotifications, &u.Preferences.DailyReports,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, password, name, role, fcm_tokens, pref_email, pref_push, pref_daily, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		u.ID, u.Email, u.Password, u.Name, u.Role, u.FCMTokens,
		u.Preferences.EmailNotifications, u.Preferences.PushNotifications, u.Preferences.DailyReports,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByID returns a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Exists checks if a user with the given email already exists.
func (r *UserRepository) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// ListAll returns all users ordered by creation date.
func (r *UserRepository) ListAll(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// UpdateSubscriptionID sets the user's current subscription reference.
func (r *UserRepository) UpdateSubscriptionID(ctx context.Context, userID string, subscriptionID *string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET subscription_id = $1, updated_at = NOW() WHERE id = $2`,
		subscriptionID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription reference: %w", err)
	}
	return nil
}

// AddFCMToken appends a push token to the user's token set. The guard in the
// WHERE clause keeps the set free of duplicates under concurrent writers.
func (r *UserRepository) AddFCMToken(ctx context.Context, userID, token string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET fcm_tokens = array_append(fcm_tokens, $1), updated_at = NOW()
		WHERE id = $2 AND NOT ($1 = ANY(fcm_tokens))
	`, token, userID)
	if err != nil {
		return fmt.Errorf("failed to add fcm token: %w", err)
	}
	return nil
}

// RemoveFCMTokens drops the given push tokens from the user's token set in a
// single atomic update.
func (r *UserRepository) RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET fcm_tokens = COALESCE(
			(SELECT array_agg(t) FROM unnest(fcm_tokens) AS t WHERE t <> ALL($1)),
			'{}'
		), updated_at = NOW()
		WHERE id = $2
	`, tokens, userID)
	if err != nil {
		return fmt.Errorf("failed to remove fcm tokens: %w", err)
	}
	return nil
}

// UpdatePreferences stores the user's notification delivery preferences.
func (r *UserRepository) UpdatePreferences(ctx context.Context, userID string, p domain.NotificationPreferences) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET pref_email = $1, pref_push = $2, pref_daily = $3, updated_at = NOW()
		WHERE id = $4
	`, p.EmailNotifications, p.PushNotifications, p.DailyReports, userID)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	return nil
}

// Delete removes a user by ID.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
