package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/necesitomasreviews/backend/internal/domain"
)

// CardService manages cards and their businesses, owner-scoped.
type CardService struct {
	cards      CardStore
	businesses BusinessStore
	validate   *validator.Validate
}

// NewCardService creates a new CardService.
func NewCardService(cards CardStore, businesses BusinessStore) *CardService {
	return &CardService{
		cards:      cards,
		businesses: businesses,
		validate:   validator.New(),
	}
}

// ownedCard loads a card and enforces ownership (admins bypass).
func (s *CardService) ownedCard(ctx context.Context, cardID, requesterID, requesterRole string) (*domain.Card, error) {
	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load card", err)
	}
	if card == nil {
		return nil, domain.ErrNotFound("card not found")
	}
	if card.UserID != requesterID && !domain.IsAdminRole(requesterRole) {
		return nil, domain.ErrForbidden("you do not own this card")
	}
	return card, nil
}

// CreateCard binds a new card to one of the requester's businesses.
func (s *CardService) CreateCard(ctx context.Context, userID string, req *domain.CreateCardRequest) (*domain.Card, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	business, err := s.businesses.FindByID(ctx, req.BusinessID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load business", err)
	}
	if business == nil {
		return nil, domain.ErrNotFound("business not found")
	}
	if business.OwnerID != userID {
		return nil, domain.ErrForbidden("you do not own this business")
	}

	card := &domain.Card{
		ID:         domain.NewCardID(),
		UserID:     userID,
		BusinessID: req.BusinessID,
		Name:       req.Name,
		Active:     true,
		CreatedAt:  time.Now(),
	}
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, domain.ErrInternal("failed to create card", err)
	}
	return card, nil
}

// ListCards returns the requester's cards.
func (s *CardService) ListCards(ctx context.Context, userID string) ([]*domain.Card, error) {
	cards, err := s.cards.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list cards", err)
	}
	if cards == nil {
		cards = []*domain.Card{}
	}
	return cards, nil
}

// GetCard returns one card, owner or admin only.
func (s *CardService) GetCard(ctx context.Context, cardID, requesterID, requesterRole string) (*domain.Card, error) {
	return s.ownedCard(ctx, cardID, requesterID, requesterRole)
}

// UpdateCard renames a card.
func (s *CardService) UpdateCard(ctx context.Context, cardID, requesterID, requesterRole string, req *domain.UpdateCardRequest) (*domain.Card, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	card, err := s.ownedCard(ctx, cardID, requesterID, requesterRole)
	if err != nil {
		return nil, err
	}
	if err := s.cards.UpdateName(ctx, cardID, req.Name); err != nil {
		return nil, domain.ErrInternal("failed to update card", err)
	}
	card.Name = req.Name
	return card, nil
}

// UpdateCardStatus activates or deactivates a card. Inactive cards reject
// scans but keep their history.
func (s *CardService) UpdateCardStatus(ctx context.Context, cardID, requesterID, requesterRole string, active bool) (*domain.Card, error) {
	card, err := s.ownedCard(ctx, cardID, requesterID, requesterRole)
	if err != nil {
		return nil, err
	}
	if err := s.cards.UpdateStatus(ctx, cardID, active); err != nil {
		return nil, domain.ErrInternal("failed to update card status", err)
	}
	card.Active = active
	return card, nil
}

// DeleteCard removes a card. Its events remain (weak references, no cascade).
func (s *CardService) DeleteCard(ctx context.Context, cardID, requesterID, requesterRole string) error {
	if _, err := s.ownedCard(ctx, cardID, requesterID, requesterRole); err != nil {
		return err
	}
	if err := s.cards.Delete(ctx, cardID); err != nil {
		return domain.ErrInternal("failed to delete card", err)
	}
	return nil
}

// CreateBusiness registers a review destination for the requester.
func (s *CardService) CreateBusiness(ctx context.Context, userID string, req *domain.CreateBusinessRequest) (*domain.Business, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	business := &domain.Business{
		ID:              uuid.New().String(),
		OwnerID:         userID,
		Name:            req.Name,
		GoogleReviewURL: req.GoogleReviewURL,
		GooglePlaceID:   req.GooglePlaceID,
		CreatedAt:       time.Now(),
	}
	if err := s.businesses.Create(ctx, business); err != nil {
		return nil, domain.ErrInternal("failed to create business", err)
	}
	return business, nil
}

// ListBusinesses returns the requester's businesses.
func (s *CardService) ListBusinesses(ctx context.Context, userID string) ([]*domain.Business, error) {
	businesses, err := s.businesses.ListByOwner(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list businesses", err)
	}
	if businesses == nil {
		businesses = []*domain.Business{}
	}
	return businesses, nil
}

// UpdateBusiness stores the name and review destination fields.
func (s *CardService) UpdateBusiness(ctx context.Context, businessID, requesterID, requesterRole string, req *domain.CreateBusinessRequest) (*domain.Business, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	business, err := s.businesses.FindByID(ctx, businessID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load business", err)
	}
	if business == nil {
		return nil, domain.ErrNotFound("business not found")
	}
	if business.OwnerID != requesterID && !domain.IsAdminRole(requesterRole) {
		return nil, domain.ErrForbidden("you do not own this business")
	}

	business.Name = req.Name
	business.GoogleReviewURL = req.GoogleReviewURL
	business.GooglePlaceID = req.GooglePlaceID
	if err := s.businesses.Update(ctx, business); err != nil {
		return nil, domain.ErrInternal("failed to update business", err)
	}
	return business, nil
}
