package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/necesitomasreviews/backend/internal/domain"
)

const businessColumns = `id, owner_id, name, google_review_url, google_place_id, created_at`

// BusinessRepository handles database operations for businesses.
type BusinessRepository struct {
	db *pgxpool.Pool
}

// NewBusinessRepository creates a new BusinessRepository.
func NewBusinessRepository(db *pgxpool.Pool) *BusinessRepository {
	return &BusinessRepository{db: db}
}

func scanBusiness(row pgx.Row) (*domain.Business, error) {
	var b domain.Business
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.GoogleReviewURL, &b.GooglePlaceID, &b.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan business: %w", err)
	}
	return &b, nil
}

// Create inserts a new business.
func (r *BusinessRepository) Create(ctx context.Context, b *domain.Business) error {
	query := `
		INSERT INTO businesses (id, owner_id, name, google_review_url, google_place_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, b.ID, b.OwnerID, b.Name, b.GoogleReviewURL, b.GooglePlaceID, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}
	return nil
}

// FindByID returns a business by ID.
func (r *BusinessRepository) FindByID(ctx context.Context, id string) (*domain.Business, error) {
	row := r.db.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id)
	return scanBusiness(row)
}

// ListByOwner returns all businesses owned by a user.
func (r *BusinessRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Business, error) {
	rows, err := r.db.Query(ctx, `SELECT `+businessColumns+` FROM businesses WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	defer rows.Close()

	var businesses []*domain.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, b)
	}
	return businesses, nil
}

// Update stores the business name and review destination fields.
func (r *BusinessRepository) Update(ctx context.Context, b *domain.Business) error {
	_, err := r.db.Exec(ctx, `
		UPDATE businesses SET name = $1, google_review_url = $2, google_place_id = $3
		WHERE id = $4
	`, b.Name, b.GoogleReviewURL, b.GooglePlaceID, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}
	return nil
}
