package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/necesitomasreviews/backend/internal/domain"
)

const eventColumns = `id, card_id, user_id, business_id, event_type, timestamp, latitude, longitude, device_type, browser, os, ip_address, review_id, review_rating`

// EventRepository is the append-only store for funnel events. Events are
// inserted by the public scan/review endpoints and only ever read after that.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	var lat, lng *float64
	var devType, browser, osName *string
	err := row.Scan(
		&e.ID, &e.CardID, &e.UserID, &e.BusinessID, &e.Type, &e.Timestamp,
		&lat, &lng, &devType, &browser, &osName,
		&e.IPAddress, &e.ReviewID, &e.ReviewRating,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	if lat != nil && lng != nil {
		e.Location = &domain.Location{Latitude: *lat, Longitude: *lng}
	}
	if devType != nil || browser != nil || osName != nil {
		e.Device = &domain.DeviceInfo{}
		if devType != nil {
			e.Device.Type = *devType
		}
		if browser != nil {
			e.Device.Browser = *browser
		}
		if osName != nil {
			e.Device.OS = *osName
		}
	}
	return &e, nil
}

// Append inserts a funnel event.
func (r *EventRepository) Append(ctx context.Context, e *domain.Event) error {
	var lat, lng *float64
	if e.Location != nil {
		lat, lng = &e.Location.Latitude, &e.Location.Longitude
	}
	var devType, browser, osName *string
	if e.Device != nil {
		devType, browser, osName = &e.Device.Type, &e.Device.Browser, &e.Device.OS
	}

	query := `
		INSERT INTO nfc_events (id, card_id, user_id, business_id, event_type, timestamp, latitude, longitude, device_type, browser, os, ip_address, review_id, review_rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.CardID, e.UserID, e.BusinessID, e.Type, e.Timestamp,
		lat, lng, devType, browser, osName,
		e.IPAddress, e.ReviewID, e.ReviewRating,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// ListByCard returns all events for a card ordered by timestamp ascending.
func (r *EventRepository) ListByCard(ctx context.Context, cardID string) ([]*domain.Event, error) {
	rows, err := r.db.Query(ctx, `SELECT `+eventColumns+` FROM nfc_events WHERE card_id = $1 ORDER BY timestamp ASC, id ASC`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// CountByType returns the total number of events of a given type across the
// platform (admin dashboard).
func (r *EventRepository) CountByType(ctx context.Context, eventType string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM nfc_events WHERE event_type = $1`, eventType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
