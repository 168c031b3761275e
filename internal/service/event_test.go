package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/necesitomasreviews/backend/internal/domain"
)

type eventFixture struct {
	svc      *EventService
	events   *fakeEventStore
	cards    *fakeCardStore
	notifier *fakeNotifier
	gate     *fakeGate
	card     *domain.Card
	business *domain.Business
}

func newEventFixture(premium bool) *eventFixture {
	owner := &domain.User{ID: "user-1", Email: "owner@test.com", Role: domain.RoleUser, Preferences: domain.DefaultPreferences()}
	business := &domain.Business{
		ID:              uuid.New().String(),
		OwnerID:         owner.ID,
		Name:            "Café Central",
		GoogleReviewURL: ptrOf("https://g.page/r/cafe-central/review"),
	}
	card := &domain.Card{
		ID:         uuid.New().String(),
		UserID:     owner.ID,
		BusinessID: business.ID,
		Name:       "Mostrador",
		Active:     true,
	}

	events := &fakeEventStore{}
	cards := newFakeCardStore(card)
	notifier := &fakeNotifier{}
	gate := &fakeGate{allow: premium}
	svc := NewEventService(events, cards, newFakeBusinessStore(business), newFakeUserStore(owner), gate, notifier)
	svc.SetSync()

	return &eventFixture{svc: svc, events: events, cards: cards, notifier: notifier, gate: gate, card: card, business: business}
}

func TestRecordScan(t *testing.T) {
	f := newEventFixture(true)

	resp, err := f.svc.RecordScan(context.Background(), f.card.ID, &domain.ScanRequest{}, RequestMeta{
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile Safari",
		IP:        "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("RecordScan: %v", err)
	}
	if resp.RedirectURL != *f.business.GoogleReviewURL {
		t.Errorf("RedirectURL = %s, want the direct review url", resp.RedirectURL)
	}

	if len(f.events.events) != 1 {
		t.Fatalf("appended %d events, want 1", len(f.events.events))
	}
	e := f.events.events[0]
	if e.Type != domain.EventScan || e.CardID != f.card.ID || e.UserID != "user-1" {
		t.Errorf("event = %+v", e)
	}
	if e.IPAddress == nil || *e.IPAddress != "203.0.113.9" {
		t.Errorf("IPAddress = %v", e.IPAddress)
	}
	if e.Device == nil || e.Device.Type != "mobile" || e.Device.OS != "ios" {
		t.Errorf("Device = %+v, want mobile/ios", e.Device)
	}

	if len(f.notifier.events) != 1 {
		t.Errorf("notified %d times, want 1 for premium owner", len(f.notifier.events))
	}
}

func TestRecordScanRedirectFallback(t *testing.T) {
	f := newEventFixture(false)

	// Place id fallback when no direct URL is configured.
	f.business.GoogleReviewURL = nil
	f.business.GooglePlaceID = ptrOf("ChIJabc123")
	resp, err := f.svc.RecordScan(context.Background(), f.card.ID, nil, RequestMeta{})
	if err != nil {
		t.Fatalf("RecordScan: %v", err)
	}
	want := "https://search.google.com/local/writereview?placeid=ChIJabc123"
	if resp.RedirectURL != want {
		t.Errorf("RedirectURL = %s, want %s", resp.RedirectURL, want)
	}

	// Neither configured: 404, and no event is recorded.
	f.business.GooglePlaceID = nil
	before := len(f.events.events)
	_, err = f.svc.RecordScan(context.Background(), f.card.ID, nil, RequestMeta{})
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != 404 {
		t.Fatalf("expected 404 without a review destination, got %v", err)
	}
	if len(f.events.events) != before {
		t.Error("no event may be appended when the scan is rejected")
	}
}

func TestRecordScanRejectsInactiveCard(t *testing.T) {
	f := newEventFixture(false)
	f.card.Active = false

	_, err := f.svc.RecordScan(context.Background(), f.card.ID, nil, RequestMeta{})
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != 400 {
		t.Fatalf("expected 400 for inactive card, got %v", err)
	}
	if len(f.events.events) != 0 {
		t.Error("inactive card scan must not append an event")
	}
}

func TestRecordScanCardLookup(t *testing.T) {
	f := newEventFixture(false)

	tests := []struct {
		name     string
		cardID   string
		wantCode int
	}{
		{"malformed id", "not-a-uuid", 400},
		{"unknown card", uuid.New().String(), 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordScan(context.Background(), tt.cardID, nil, RequestMeta{})
			appErr, ok := domain.AsAppError(err)
			if !ok || appErr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestRecordReviewStartedNeverNotifies(t *testing.T) {
	f := newEventFixture(true)
	// review_started is accepted even on a deactivated card.
	f.card.Active = false

	if err := f.svc.RecordReviewStarted(context.Background(), f.card.ID, nil); err != nil {
		t.Fatalf("RecordReviewStarted: %v", err)
	}
	if len(f.events.events) != 1 || f.events.events[0].Type != domain.EventReviewStarted {
		t.Fatalf("events = %+v, want one review_started", f.events.events)
	}
	if len(f.notifier.events) != 0 {
		t.Error("review_started must never fan out a notification")
	}
}

func TestRecordReviewCompleted(t *testing.T) {
	f := newEventFixture(true)

	req := &domain.ReviewCompletedRequest{ReviewID: "rev-1", ReviewRating: ptrOf(5)}
	if err := f.svc.RecordReviewCompleted(context.Background(), f.card.ID, req); err != nil {
		t.Fatalf("RecordReviewCompleted: %v", err)
	}

	if len(f.events.events) != 1 {
		t.Fatalf("appended %d events, want 1", len(f.events.events))
	}
	e := f.events.events[0]
	if e.Type != domain.EventReviewCompleted || e.ReviewID == nil || *e.ReviewID != "rev-1" {
		t.Errorf("event = %+v", e)
	}
	if e.ReviewRating == nil || *e.ReviewRating != 5 {
		t.Errorf("ReviewRating = %v, want 5", e.ReviewRating)
	}
	if f.card.ReviewCount != 1 {
		t.Errorf("ReviewCount = %d, want 1", f.card.ReviewCount)
	}
	if len(f.notifier.events) != 1 {
		t.Errorf("notified %d times, want 1", len(f.notifier.events))
	}
}

func TestRecordReviewCompletedRequiresReviewID(t *testing.T) {
	f := newEventFixture(true)

	err := f.svc.RecordReviewCompleted(context.Background(), f.card.ID, &domain.ReviewCompletedRequest{})
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != 400 {
		t.Fatalf("expected 400 without reviewId, got %v", err)
	}
	if len(f.events.events) != 0 {
		t.Error("validation failure must not append an event")
	}
	if f.card.ReviewCount != 0 {
		t.Error("validation failure must not bump the review counter")
	}
}

func TestRecordReviewCompletedRejectsBadRating(t *testing.T) {
	f := newEventFixture(true)

	for _, rating := range []int{0, 6} {
		req := &domain.ReviewCompletedRequest{ReviewID: "rev-1", ReviewRating: ptrOf(rating)}
		err := f.svc.RecordReviewCompleted(context.Background(), f.card.ID, req)
		appErr, ok := domain.AsAppError(err)
		if !ok || appErr.Code != 400 {
			t.Fatalf("rating %d: expected 400, got %v", rating, err)
		}
	}
	if len(f.events.events) != 0 {
		t.Error("invalid ratings must not append events")
	}
}

func TestNotificationGatedByPremium(t *testing.T) {
	f := newEventFixture(false)

	if _, err := f.svc.RecordScan(context.Background(), f.card.ID, nil, RequestMeta{}); err != nil {
		t.Fatalf("RecordScan: %v", err)
	}
	if len(f.events.events) != 1 {
		t.Fatal("the event must be recorded regardless of the owner's plan")
	}
	if len(f.notifier.events) != 0 {
		t.Error("free owners must not receive notifications")
	}
}

func TestParseDeviceInfo(t *testing.T) {
	tests := []struct {
		name    string
		ua      string
		device  string
		browser string
		os      string
	}{
		{
			"android chrome",
			"Mozilla/5.0 (Linux; Android 14; Pixel 8) Chrome/120.0 Mobile Safari/537.36",
			"mobile", "chrome", "android",
		},
		{
			"windows firefox",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
			"desktop", "firefox", "windows",
		},
		{
			"ipad safari",
			"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) Version/17.0 Safari/604.1",
			"tablet", "safari", "ios",
		},
		{
			"mac edge",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Chrome/120.0 Safari/537.36 Edg/120.0",
			"desktop", "edge", "macos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := parseDeviceInfo(tt.ua)
			if info.Type != tt.device || info.Browser != tt.browser || info.OS != tt.os {
				t.Errorf("parseDeviceInfo = %+v, want %s/%s/%s", info, tt.device, tt.browser, tt.os)
			}
		})
	}
}
