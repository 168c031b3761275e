package service

import (
	"context"
	"errors"
	"sync"

	"github.com/necesitomasreviews/backend/internal/domain"
)

// In-memory store fakes shared across the service tests.

type fakeUserStore struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	removed [][]string
}

func newFakeUserStore(users ...*domain.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

func (s *fakeUserStore) Exists(_ context.Context, email string) (bool, error) {
	u, _ := s.FindByEmail(context.Background(), email)
	return u != nil, nil
}

func (s *fakeUserStore) ListAll(_ context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	return all, nil
}

func (s *fakeUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) UpdateSubscriptionID(_ context.Context, userID string, subscriptionID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.SubscriptionID = subscriptionID
	}
	return nil
}

func (s *fakeUserStore) AddFCMToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	for _, t := range u.FCMTokens {
		if t == token {
			return nil
		}
	}
	u.FCMTokens = append(u.FCMTokens, token)
	return nil
}

func (s *fakeUserStore) RemoveFCMTokens(_ context.Context, userID string, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, tokens)
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	drop := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		drop[t] = true
	}
	kept := u.FCMTokens[:0]
	for _, t := range u.FCMTokens {
		if !drop[t] {
			kept = append(kept, t)
		}
	}
	u.FCMTokens = kept
	return nil
}

func (s *fakeUserStore) UpdatePreferences(_ context.Context, userID string, p domain.NotificationPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.Preferences = p
	}
	return nil
}

type fakeCardStore struct {
	mu    sync.Mutex
	cards map[string]*domain.Card
}

func newFakeCardStore(cards ...*domain.Card) *fakeCardStore {
	s := &fakeCardStore{cards: make(map[string]*domain.Card)}
	for _, c := range cards {
		s.cards[c.ID] = c
	}
	return s
}

func (s *fakeCardStore) Create(_ context.Context, c *domain.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[c.ID] = c
	return nil
}

func (s *fakeCardStore) FindByID(_ context.Context, id string) (*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cards[id], nil
}

func (s *fakeCardStore) ListByUser(_ context.Context, userID string) ([]*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Card
	for _, c := range s.cards {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeCardStore) UpdateName(_ context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cards[id]; ok {
		c.Name = name
	}
	return nil
}

func (s *fakeCardStore) UpdateStatus(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cards[id]; ok {
		c.Active = active
	}
	return nil
}

func (s *fakeCardStore) IncrementReviewCount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cards[id]; ok {
		c.ReviewCount++
	}
	return nil
}

func (s *fakeCardStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cards, id)
	return nil
}

type fakeBusinessStore struct {
	businesses map[string]*domain.Business
}

func newFakeBusinessStore(businesses ...*domain.Business) *fakeBusinessStore {
	s := &fakeBusinessStore{businesses: make(map[string]*domain.Business)}
	for _, b := range businesses {
		s.businesses[b.ID] = b
	}
	return s
}

func (s *fakeBusinessStore) Create(_ context.Context, b *domain.Business) error {
	s.businesses[b.ID] = b
	return nil
}

func (s *fakeBusinessStore) FindByID(_ context.Context, id string) (*domain.Business, error) {
	return s.businesses[id], nil
}

func (s *fakeBusinessStore) ListByOwner(_ context.Context, ownerID string) ([]*domain.Business, error) {
	var out []*domain.Business
	for _, b := range s.businesses {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeBusinessStore) Update(_ context.Context, b *domain.Business) error {
	s.businesses[b.ID] = b
	return nil
}

type fakeEventStore struct {
	mu     sync.Mutex
	events []*domain.Event
}

func (s *fakeEventStore) Append(_ context.Context, e *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *fakeEventStore) ListByCard(_ context.Context, cardID string) ([]*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Event
	for _, e := range s.events {
		if e.CardID == cardID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications []*domain.Notification
	createErr     error
}

func (s *fakeNotificationStore) Create(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *fakeNotificationStore) ListByUser(_ context.Context, userID string, page, limit int, unreadOnly bool) ([]*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Notification
	for _, n := range s.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (s *fakeNotificationStore) ListUnread(_ context.Context, userID string, limit int) ([]*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			out = append(out, n)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeNotificationStore) Count(_ context.Context, userID string, unreadOnly bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			count++
		}
	}
	return count, nil
}

func (s *fakeNotificationStore) CountOwnedBy(_ context.Context, userID string, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && want[n.ID] {
			count++
		}
	}
	return count, nil
}

func (s *fakeNotificationStore) MarkRead(_ context.Context, userID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, n := range s.notifications {
		if n.UserID == userID && want[n.ID] {
			n.Read = true
		}
	}
	return nil
}

func (s *fakeNotificationStore) MarkAllRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (s *fakeNotificationStore) Delete(_ context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.UserID == userID && n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeSubscriptionStore struct {
	mu   sync.Mutex
	subs map[string]*domain.Subscription
}

func newFakeSubscriptionStore(subs ...*domain.Subscription) *fakeSubscriptionStore {
	s := &fakeSubscriptionStore{subs: make(map[string]*domain.Subscription)}
	for _, sub := range subs {
		s.subs[sub.ID] = sub
	}
	return s
}

func (s *fakeSubscriptionStore) Create(_ context.Context, sub *domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.ID] = sub
	return nil
}

func (s *fakeSubscriptionStore) FindByID(_ context.Context, id string) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[id], nil
}

func (s *fakeSubscriptionStore) FindActiveByUser(_ context.Context, userID string) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.Status == domain.SubStatusActive {
			return sub, nil
		}
	}
	return nil, nil
}

func (s *fakeSubscriptionStore) CancelActive(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.Status == domain.SubStatusActive {
			sub.Status = domain.SubStatusCanceled
		}
	}
	return nil
}

func (s *fakeSubscriptionStore) ExpireIfActive(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[id]; ok && sub.Status == domain.SubStatusActive {
		sub.Status = domain.SubStatusExpired
	}
	return nil
}

// Delivery channel fakes.

type fakeRealtime struct {
	mu        sync.Mutex
	published []*domain.Notification
}

func (f *fakeRealtime) Publish(_ string, n *domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, n)
}

type fakePushGateway struct {
	mu      sync.Mutex
	calls   [][]string
	invalid []string
	err     error
}

func (f *fakePushGateway) Send(_ context.Context, tokens []string, _, _ string, _ map[string]string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, tokens)
	return f.invalid, f.err
}

type fakeMailer struct {
	mu       sync.Mutex
	failures int
	sent     []string
}

func (f *fakeMailer) Send(to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeGate struct {
	allow bool
}

func (f *fakeGate) RequireActivePremium(_ context.Context, _ *domain.User) error {
	if f.allow {
		return nil
	}
	return domain.ErrSubscriptionGate("a premium subscription is required", domain.ReasonPremiumRequired)
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []*domain.Event
}

func (f *fakeNotifier) Notify(_ context.Context, _ *domain.User, e *domain.Event, _ *domain.Card, _ *domain.Business) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func ptrOf[T any](v T) *T { return &v }
