package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/necesitomasreviews/backend/internal/domain"
)

// Notifier fans out a persisted event to the user's delivery channels.
type Notifier interface {
	Notify(ctx context.Context, user *domain.User, event *domain.Event, card *domain.Card, business *domain.Business) error
}

// RequestMeta is per-request client information attached to events.
type RequestMeta struct {
	UserAgent string
	IP        string
}

// EventService records funnel events from the public scan/review endpoints.
// The HTTP outcome depends only on the event append; notification fan-out
// runs asynchronously and its failures never reach the caller.
type EventService struct {
	events     EventStore
	cards      CardStore
	businesses BusinessStore
	users      UserStore
	gate       PremiumGate
	notifier   Notifier
	validate   *validator.Validate

	// async controls whether fan-out runs in a goroutine. Tests flip it off
	// to observe delivery synchronously.
	async bool
}

// NewEventService creates a new EventService.
func NewEventService(events EventStore, cards CardStore, businesses BusinessStore, users UserStore, gate PremiumGate, notifier Notifier) *EventService {
	return &EventService{
		events:     events,
		cards:      cards,
		businesses: businesses,
		users:      users,
		gate:       gate,
		notifier:   notifier,
		validate:   validator.New(),
		async:      true,
	}
}

// SetSync makes notification fan-out run inline. Tests only.
func (s *EventService) SetSync() {
	s.async = false
}

// resolveCard validates the card id format and loads the card with its
// business. requireActive rejects deactivated cards (scan only).
func (s *EventService) resolveCard(ctx context.Context, cardID string, requireActive bool) (*domain.Card, *domain.Business, error) {
	if _, err := uuid.Parse(cardID); err != nil {
		return nil, nil, domain.ErrBadRequest("invalid card id")
	}

	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, nil, domain.ErrInternal("failed to load card", err)
	}
	if card == nil {
		return nil, nil, domain.ErrNotFound("card not found")
	}
	if requireActive && !card.Active {
		return nil, nil, domain.ErrBadRequest("card is not active")
	}

	business, err := s.businesses.FindByID(ctx, card.BusinessID)
	if err != nil {
		return nil, nil, domain.ErrInternal("failed to load business", err)
	}
	if business == nil {
		return nil, nil, domain.ErrNotFound("business not found")
	}
	return card, business, nil
}

// RecordScan appends a scan event and returns the business's review redirect
// target. May trigger a notification for premium owners.
func (s *EventService) RecordScan(ctx context.Context, cardID string, req *domain.ScanRequest, meta RequestMeta) (*domain.ScanResponse, error) {
	card, business, err := s.resolveCard(ctx, cardID, true)
	if err != nil {
		return nil, err
	}

	redirectURL := business.ReviewURL()
	if redirectURL == "" {
		return nil, domain.ErrNotFound("business has no review destination")
	}

	event := s.newEvent(card, domain.EventScan, req.Loc(), &meta)
	if err := s.events.Append(ctx, event); err != nil {
		return nil, domain.ErrInternal("failed to record scan", err)
	}

	s.maybeNotify(card, business, event)
	return &domain.ScanResponse{RedirectURL: redirectURL}, nil
}

// RecordReviewStarted appends a review_started event. Never notifies.
func (s *EventService) RecordReviewStarted(ctx context.Context, cardID string, req *domain.ScanRequest) error {
	card, _, err := s.resolveCard(ctx, cardID, false)
	if err != nil {
		return err
	}

	event := s.newEvent(card, domain.EventReviewStarted, req.Loc(), nil)
	if err := s.events.Append(ctx, event); err != nil {
		return domain.ErrInternal("failed to record review start", err)
	}
	return nil
}

// RecordReviewCompleted appends a review_completed event and bumps the card's
// review counter. The review id is required; nothing is appended without it.
func (s *EventService) RecordReviewCompleted(ctx context.Context, cardID string, req *domain.ReviewCompletedRequest) error {
	if err := s.validate.Struct(req); err != nil {
		if req.ReviewID == "" {
			return domain.ErrBadRequest("reviewId is required")
		}
		return domain.ErrBadRequest("reviewRating must be between 1 and 5")
	}

	card, business, err := s.resolveCard(ctx, cardID, false)
	if err != nil {
		return err
	}

	var loc *domain.Location
	if req.Latitude != nil && req.Longitude != nil {
		loc = &domain.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	event := s.newEvent(card, domain.EventReviewCompleted, loc, nil)
	event.ReviewID = &req.ReviewID
	event.ReviewRating = req.ReviewRating

	if err := s.events.Append(ctx, event); err != nil {
		return domain.ErrInternal("failed to record review", err)
	}

	if err := s.cards.IncrementReviewCount(ctx, card.ID); err != nil {
		// The event is already durable; the counter is denormalized.
		log.Printf("failed to increment review count for card %s: %v", card.ID, err)
	}

	s.maybeNotify(card, business, event)
	return nil
}

func (s *EventService) newEvent(card *domain.Card, eventType string, loc *domain.Location, meta *RequestMeta) *domain.Event {
	event := &domain.Event{
		ID:         domain.NewEventID(),
		CardID:     card.ID,
		UserID:     card.UserID,
		BusinessID: card.BusinessID,
		Type:       eventType,
		Timestamp:  time.Now(),
		Location:   loc,
	}
	if meta != nil {
		if meta.UserAgent != "" {
			event.Device = parseDeviceInfo(meta.UserAgent)
		}
		if meta.IP != "" {
			ip := meta.IP
			event.IPAddress = &ip
		}
	}
	return event
}

// maybeNotify fans out scan and review_completed events when the card's
// owner holds an active premium subscription. Failures are logged only.
func (s *EventService) maybeNotify(card *domain.Card, business *domain.Business, event *domain.Event) {
	if s.notifier == nil {
		return
	}
	if event.Type != domain.EventScan && event.Type != domain.EventReviewCompleted {
		return
	}

	deliver := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		user, err := s.users.FindByID(ctx, card.UserID)
		if err != nil || user == nil {
			log.Printf("notification skipped: failed to load owner of card %s: %v", card.ID, err)
			return
		}
		if err := s.gate.RequireActivePremium(ctx, user); err != nil {
			return
		}
		if err := s.notifier.Notify(ctx, user, event, card, business); err != nil {
			log.Printf("notification for event %s failed: %v", event.ID, err)
		}
	}

	if s.async {
		go deliver()
	} else {
		deliver()
	}
}

// parseDeviceInfo derives coarse device information from a User-Agent.
func parseDeviceInfo(ua string) *domain.DeviceInfo {
	lower := strings.ToLower(ua)
	info := &domain.DeviceInfo{Type: "desktop", Browser: "other", OS: "other"}

	switch {
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		info.Type = "tablet"
	case strings.Contains(lower, "mobile") || strings.Contains(lower, "iphone") || strings.Contains(lower, "android"):
		info.Type = "mobile"
	}

	switch {
	case strings.Contains(lower, "edg/"):
		info.Browser = "edge"
	case strings.Contains(lower, "chrome"):
		info.Browser = "chrome"
	case strings.Contains(lower, "firefox"):
		info.Browser = "firefox"
	case strings.Contains(lower, "safari"):
		info.Browser = "safari"
	}

	switch {
	case strings.Contains(lower, "android"):
		info.OS = "android"
	case strings.Contains(lower, "iphone") || strings.Contains(lower, "ipad") || strings.Contains(lower, "ios"):
		info.OS = "ios"
	case strings.Contains(lower, "windows"):
		info.OS = "windows"
	case strings.Contains(lower, "mac os"):
		info.OS = "macos"
	case strings.Contains(lower, "linux"):
		info.OS = "linux"
	}

	return info
}
