package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/necesitomasreviews/backend/internal/domain"
)

const cardColumns = `id, user_id, business_id, name, active, review_count, created_at`

// CardRepository handles database operations for NFC cards.
type CardRepository struct {
	db *pgxpool.Pool
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(db *pgxpool.Pool) *CardRepository {
	return &CardRepository{db: db}
}

func scanCard(row pgx.Row) (*domain.Card, error) {
	var c domain.Card
	err := row.Scan(&c.ID, &c.UserID, &c.BusinessID, &c.Name, &c.Active, &c.ReviewCount, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan card: %w", err)
	}
	return &c, nil
}

// Create inserts a new card.
func (r *CardRepository) Create(ctx context.Context, c *domain.Card) error {
	query := `
		INSERT INTO cards (id, user_id, business_id, name, active, review_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query, c.ID, c.UserID, c.BusinessID, c.Name, c.Active, c.ReviewCount, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// FindByID returns a card by ID.
func (r *CardRepository) FindByID(ctx context.Context, id string) (*domain.Card, error) {
	row := r.db.QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id)
	return scanCard(row)
}

// ListByUser returns all cards owned by a user, newest first.
func (r *CardRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Card, error) {
	rows, err := r.db.Query(ctx, `SELECT `+cardColumns+` FROM cards WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// UpdateName renames a card.
func (r *CardRepository) UpdateName(ctx context.Context, id, name string) error {
	_, err := r.db.Exec(ctx, `UPDATE cards SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	return nil
}

// UpdateStatus activates or deactivates a card.
func (r *CardRepository) UpdateStatus(ctx context.Context, id string, active bool) error {
	_, err := r.db.Exec(ctx, `UPDATE cards SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update card status: %w", err)
	}
	return nil
}

// IncrementReviewCount bumps the denormalized review counter. The in-database
// increment keeps concurrent completions from losing updates.
func (r *CardRepository) IncrementReviewCount(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE cards SET review_count = review_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment review count: %w", err)
	}
	return nil
}

// Delete removes a card by ID.
func (r *CardRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return nil
}
