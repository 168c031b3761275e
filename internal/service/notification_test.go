package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/necesitomasreviews/backend/internal/domain"
)

func notifyFixture() (*domain.User, *domain.Event, *domain.Card, *domain.Business) {
	user := &domain.User{
		ID:          "user-1",
		Email:       "owner@test.com",
		Role:        domain.RoleUser,
		Preferences: domain.DefaultPreferences(),
		FCMTokens:   []string{"token-a", "token-b"},
	}
	card := &domain.Card{ID: "card-1", UserID: "user-1", BusinessID: "biz-1", Name: "Mostrador"}
	business := &domain.Business{ID: "biz-1", OwnerID: "user-1", Name: "Café Central"}
	event := &domain.Event{
		ID:        domain.NewEventID(),
		CardID:    "card-1",
		UserID:    "user-1",
		Type:      domain.EventScan,
		Timestamp: time.Now(),
	}
	return user, event, card, business
}

func newTestNotificationService(store *fakeNotificationStore, users *fakeUserStore, rt *fakeRealtime, pushGw *fakePushGateway, mail *fakeMailer) *NotificationService {
	svc := NewNotificationService(store, users, rt, pushGw, mail, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2})
	svc.sleep = func(time.Duration) {}
	return svc
}

func TestNotifyDeliversAllChannels(t *testing.T) {
	user, event, card, business := notifyFixture()
	store := &fakeNotificationStore{}
	users := newFakeUserStore(user)
	rt := &fakeRealtime{}
	pushGw := &fakePushGateway{}
	mail := &fakeMailer{}
	svc := newTestNotificationService(store, users, rt, pushGw, mail)

	if err := svc.Notify(context.Background(), user, event, card, business); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(store.notifications) != 1 {
		t.Fatalf("persisted %d notifications, want 1", len(store.notifications))
	}
	n := store.notifications[0]
	if n.Title != "¡Nueva visita!" {
		t.Errorf("title = %q", n.Title)
	}
	if n.Read {
		t.Error("new notification must start unread")
	}
	if len(rt.published) != 1 {
		t.Errorf("realtime published %d, want 1", len(rt.published))
	}
	if len(pushGw.calls) != 1 || len(pushGw.calls[0]) != 2 {
		t.Errorf("push calls = %v, want one batch of 2 tokens", pushGw.calls)
	}
	if len(mail.sent) != 1 || mail.sent[0] != "owner@test.com" {
		t.Errorf("mail sent = %v", mail.sent)
	}
}

func TestNotifyReviewCompletedRendering(t *testing.T) {
	user, event, card, business := notifyFixture()
	event.Type = domain.EventReviewCompleted
	event.ReviewID = ptrOf("rev-1")
	event.ReviewRating = ptrOf(5)

	store := &fakeNotificationStore{}
	svc := newTestNotificationService(store, newFakeUserStore(user), &fakeRealtime{}, &fakePushGateway{}, &fakeMailer{})

	if err := svc.Notify(context.Background(), user, event, card, business); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	n := store.notifications[0]
	if n.Title != "¡Nueva reseña!" {
		t.Errorf("title = %q", n.Title)
	}
	if !strings.Contains(n.Message, "5 estrellas") {
		t.Errorf("message = %q, want rating included", n.Message)
	}
	if n.Data.Rating == nil || *n.Data.Rating != 5 {
		t.Errorf("Data.Rating = %v, want 5", n.Data.Rating)
	}
	if n.Data.ReviewID == nil || *n.Data.ReviewID != "rev-1" {
		t.Errorf("Data.ReviewID = %v, want rev-1", n.Data.ReviewID)
	}
}

func TestNotifyReviewStartedSkipped(t *testing.T) {
	user, event, card, business := notifyFixture()
	event.Type = domain.EventReviewStarted

	store := &fakeNotificationStore{}
	rt := &fakeRealtime{}
	svc := newTestNotificationService(store, newFakeUserStore(user), rt, &fakePushGateway{}, &fakeMailer{})

	if err := svc.Notify(context.Background(), user, event, card, business); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(store.notifications) != 0 || len(rt.published) != 0 {
		t.Error("review_started must not produce a notification")
	}
}

func TestNotifyPersistenceFailureStopsDelivery(t *testing.T) {
	user, event, card, business := notifyFixture()
	store := &fakeNotificationStore{createErr: errors.New("db down")}
	rt := &fakeRealtime{}
	pushGw := &fakePushGateway{}
	mail := &fakeMailer{}
	svc := newTestNotificationService(store, newFakeUserStore(user), rt, pushGw, mail)

	if err := svc.Notify(context.Background(), user, event, card, business); err == nil {
		t.Fatal("expected persistence error to propagate")
	}
	if len(rt.published) != 0 || len(pushGw.calls) != 0 || len(mail.sent) != 0 {
		t.Error("no channel may deliver when persistence fails")
	}
}

func TestNotifyChannelFailuresAreIndependent(t *testing.T) {
	user, event, card, business := notifyFixture()
	store := &fakeNotificationStore{}
	rt := &fakeRealtime{}
	pushGw := &fakePushGateway{err: errors.New("fcm unreachable")}
	mail := &fakeMailer{}
	svc := newTestNotificationService(store, newFakeUserStore(user), rt, pushGw, mail)

	if err := svc.Notify(context.Background(), user, event, card, business); err != nil {
		t.Fatalf("channel failure must not propagate: %v", err)
	}
	if len(rt.published) != 1 {
		t.Error("realtime should deliver despite push failure")
	}
	if len(mail.sent) != 1 {
		t.Error("email should deliver despite push failure")
	}
}

func TestNotifyPrunesInvalidTokens(t *testing.T) {
	user, event, card, business := notifyFixture()
	store := &fakeNotificationStore{}
	users := newFakeUserStore(user)
	pushGw := &fakePushGateway{invalid: []string{"token-b"}}
	svc := newTestNotificationService(store, users, &fakeRealtime{}, pushGw, &fakeMailer{})

	if err := svc.Notify(context.Background(), user, event, card, business); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(pushGw.calls) != 1 {
		t.Fatalf("push calls = %d, want 1 (invalid tokens are not retried)", len(pushGw.calls))
	}
	if len(users.removed) != 1 || users.removed[0][0] != "token-b" {
		t.Fatalf("removed = %v, want [[token-b]]", users.removed)
	}
	if len(user.FCMTokens) != 1 || user.FCMTokens[0] != "token-a" {
		t.Errorf("FCMTokens = %v, want [token-a]", user.FCMTokens)
	}
}

func TestNotifyHonorsPreferences(t *testing.T) {
	user, event, card, business := notifyFixture()
	user.Preferences.PushNotifications = false
	user.Preferences.EmailNotifications = false

	store := &fakeNotificationStore{}
	rt := &fakeRealtime{}
	pushGw := &fakePushGateway{}
	mail := &fakeMailer{}
	svc := newTestNotificationService(store, newFakeUserStore(user), rt, pushGw, mail)

	if err := svc.Notify(context.Background(), user, event, card, business); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(pushGw.calls) != 0 {
		t.Error("push disabled by preference, gateway should not be called")
	}
	if len(mail.sent) != 0 {
		t.Error("email disabled by preference, sender should not be called")
	}
	// Realtime and persistence are unconditional.
	if len(store.notifications) != 1 || len(rt.published) != 1 {
		t.Error("persistence and realtime must run regardless of preferences")
	}
}

func TestEmailRetrySucceedsAfterTransientFailure(t *testing.T) {
	user, event, card, business := notifyFixture()
	mail := &fakeMailer{failures: 2}
	var slept []time.Duration
	svc := newTestNotificationService(&fakeNotificationStore{}, newFakeUserStore(user), &fakeRealtime{}, &fakePushGateway{}, mail)
	svc.sleep = func(d time.Duration) { slept = append(slept, d) }

	if err := svc.Notify(context.Background(), user, event, card, business); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("mail sent = %v, want 1 delivery on third attempt", mail.sent)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Errorf("backoff = %v, want [1s 2s]", slept)
	}
}

func TestEmailRetryExhaustionSwallowed(t *testing.T) {
	user, event, card, business := notifyFixture()
	mail := &fakeMailer{failures: 10}
	svc := newTestNotificationService(&fakeNotificationStore{}, newFakeUserStore(user), &fakeRealtime{}, &fakePushGateway{}, mail)

	if err := svc.Notify(context.Background(), user, event, card, business); err != nil {
		t.Fatalf("exhausted email retry must not propagate: %v", err)
	}
	if mail.failures != 7 {
		t.Errorf("attempts made = %d, want 3", 10-mail.failures)
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2}
	wants := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for attempt, want := range wants {
		if got := p.Delay(attempt + 1); got != want {
			t.Errorf("Delay(%d) = %v, want %v", attempt+1, got, want)
		}
	}
}

func TestMarkReadAllOrNothing(t *testing.T) {
	store := &fakeNotificationStore{notifications: []*domain.Notification{
		{ID: "n-1", UserID: "user-1"},
		{ID: "n-2", UserID: "user-1"},
		{ID: "n-3", UserID: "someone-else"},
	}}
	svc := newTestNotificationService(store, newFakeUserStore(), &fakeRealtime{}, &fakePushGateway{}, &fakeMailer{})

	err := svc.MarkRead(context.Background(), "user-1", []string{"n-1", "n-3"})
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != 403 {
		t.Fatalf("expected 403 for foreign notification, got %v", err)
	}
	for _, n := range store.notifications {
		if n.Read {
			t.Fatalf("notification %s marked read despite rejected batch", n.ID)
		}
	}

	if err := svc.MarkRead(context.Background(), "user-1", []string{"n-1", "n-2"}); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !store.notifications[0].Read || !store.notifications[1].Read {
		t.Error("owned notifications should be read")
	}
	if store.notifications[2].Read {
		t.Error("foreign notification must stay unread")
	}
}

func TestMarkReadEmptyBatch(t *testing.T) {
	svc := newTestNotificationService(&fakeNotificationStore{}, newFakeUserStore(), &fakeRealtime{}, &fakePushGateway{}, &fakeMailer{})
	err := svc.MarkRead(context.Background(), "user-1", nil)
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != 400 {
		t.Fatalf("expected 400 for empty batch, got %v", err)
	}
}

func TestListPaginationClamps(t *testing.T) {
	store := &fakeNotificationStore{}
	for i := 0; i < 5; i++ {
		store.notifications = append(store.notifications, &domain.Notification{
			ID: domain.NewNotificationID(), UserID: "user-1", Read: i%2 == 0,
		})
	}
	svc := newTestNotificationService(store, newFakeUserStore(), &fakeRealtime{}, &fakePushGateway{}, &fakeMailer{})

	page, err := svc.List(context.Background(), "user-1", 0, -5, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Page != 1 || page.Limit != 20 {
		t.Errorf("page/limit = %d/%d, want clamped to 1/20", page.Page, page.Limit)
	}
	if page.Total != 5 {
		t.Errorf("Total = %d, want 5", page.Total)
	}
	if page.UnreadCount != 2 {
		t.Errorf("UnreadCount = %d, want 2", page.UnreadCount)
	}
}

func TestDeleteNotification(t *testing.T) {
	store := &fakeNotificationStore{notifications: []*domain.Notification{
		{ID: "n-1", UserID: "user-1"},
	}}
	svc := newTestNotificationService(store, newFakeUserStore(), &fakeRealtime{}, &fakePushGateway{}, &fakeMailer{})

	if err := svc.Delete(context.Background(), "user-1", "n-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	err := svc.Delete(context.Background(), "user-1", "n-1")
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != 404 {
		t.Fatalf("expected 404 for missing notification, got %v", err)
	}
}

func TestUpdatePreferencesPartial(t *testing.T) {
	user := &domain.User{ID: "user-1", Preferences: domain.DefaultPreferences()}
	users := newFakeUserStore(user)
	svc := newTestNotificationService(&fakeNotificationStore{}, users, &fakeRealtime{}, &fakePushGateway{}, &fakeMailer{})

	prefs, err := svc.UpdatePreferences(context.Background(), "user-1", &domain.UpdatePreferencesRequest{
		PushNotifications: ptrOf(false),
	})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	if prefs.PushNotifications {
		t.Error("push should be disabled")
	}
	if !prefs.EmailNotifications {
		t.Error("email was not in the request and must stay enabled")
	}
	if user.Preferences.PushNotifications {
		t.Error("store should carry the updated preferences")
	}
}

func TestFCMTokenRegistration(t *testing.T) {
	user := &domain.User{ID: "user-1"}
	users := newFakeUserStore(user)
	svc := newTestNotificationService(&fakeNotificationStore{}, users, &fakeRealtime{}, &fakePushGateway{}, &fakeMailer{})

	if err := svc.AddFCMToken(context.Background(), "user-1", "tok"); err != nil {
		t.Fatalf("AddFCMToken: %v", err)
	}
	// Duplicate registration is a no-op.
	if err := svc.AddFCMToken(context.Background(), "user-1", "tok"); err != nil {
		t.Fatalf("AddFCMToken duplicate: %v", err)
	}
	if len(user.FCMTokens) != 1 {
		t.Fatalf("FCMTokens = %v, want exactly one", user.FCMTokens)
	}

	if err := svc.AddFCMToken(context.Background(), "user-1", ""); err == nil {
		t.Error("empty token must be rejected")
	}

	if err := svc.RemoveFCMToken(context.Background(), "user-1", "tok"); err != nil {
		t.Fatalf("RemoveFCMToken: %v", err)
	}
	if len(user.FCMTokens) != 0 {
		t.Errorf("FCMTokens = %v, want empty", user.FCMTokens)
	}
}
