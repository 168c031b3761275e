package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/necesitomasreviews/backend/internal/domain"
	"github.com/necesitomasreviews/backend/pkg/mailer"
	"github.com/necesitomasreviews/backend/pkg/push"
)

// unreadBacklogLimit caps the backlog pushed to a session on authenticate.
const unreadBacklogLimit = 20

// RealtimePublisher pushes a notification to every live session of a user.
// Implemented by the websocket hub; a user with no sessions is a no-op.
type RealtimePublisher interface {
	Publish(userID string, n *domain.Notification)
}

// RetryPolicy bounds the email delivery retry loop. Attempt n sleeps
// BaseDelay * Multiplier^(n-1) before retrying.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// Delay returns the wait before retrying after the given 1-based attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return d
}

// DefaultRetryPolicy retries three times at 1s, 2s, 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2}
}

// NotificationService persists notifications and fans them out over the
// realtime, push, and email channels. Channel failures are logged and
// swallowed: one channel can never block another, and delivery can never
// roll back the persisted record.
type NotificationService struct {
	notifications NotificationStore
	users         UserStore
	realtime      RealtimePublisher
	push          push.Gateway
	mail          mailer.Sender
	retry         RetryPolicy
	sleep         func(time.Duration)
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	notifications NotificationStore,
	users UserStore,
	realtime RealtimePublisher,
	pushGw push.Gateway,
	mail mailer.Sender,
	retry RetryPolicy,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		realtime:      realtime,
		push:          pushGw,
		mail:          mail,
		retry:         retry,
		sleep:         time.Sleep,
	}
}

// Notify builds and persists a notification for the event, then delivers it.
// Only persistence failures are returned; every channel failure is logged.
func (s *NotificationService) Notify(ctx context.Context, user *domain.User, event *domain.Event, card *domain.Card, business *domain.Business) error {
	n, ok := buildNotification(user, event, card, business)
	if !ok {
		return nil
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to persist notification: %w", err)
	}

	s.deliverRealtime(user, n)
	s.deliverPush(ctx, user, n)
	s.deliverEmail(user, n)
	return nil
}

// buildNotification renders the title/message for qualifying event types.
// review_started never notifies.
func buildNotification(user *domain.User, event *domain.Event, card *domain.Card, business *domain.Business) (*domain.Notification, bool) {
	data := domain.NotificationData{
		CardName:     card.Name,
		BusinessName: business.Name,
	}

	var title, message string
	switch event.Type {
	case domain.EventScan:
		title = "¡Nueva visita!"
		message = fmt.Sprintf("Alguien escaneó tu tarjeta %q de %s", card.Name, business.Name)
	case domain.EventReviewCompleted:
		data.ReviewID = event.ReviewID
		data.Rating = event.ReviewRating
		title = "¡Nueva reseña!"
		if event.ReviewRating != nil {
			message = fmt.Sprintf("Recibiste una reseña de %d estrellas en %s", *event.ReviewRating, business.Name)
		} else {
			message = fmt.Sprintf("Recibiste una nueva reseña en %s", business.Name)
		}
	default:
		return nil, false
	}

	return &domain.Notification{
		ID:         domain.NewNotificationID(),
		UserID:     user.ID,
		CardID:     card.ID,
		BusinessID: business.ID,
		EventType:  event.Type,
		Title:      title,
		Message:    message,
		Data:       data,
		Timestamp:  time.Now(),
	}, true
}

func (s *NotificationService) deliverRealtime(user *domain.User, n *domain.Notification) {
	if s.realtime == nil {
		return
	}
	s.realtime.Publish(user.ID, n)
}

// deliverPush sends one batch to all registered tokens and prunes the ones
// the gateway reports as invalid. Pruning is the only mutation delivery
// performs; invalid tokens are not retried.
func (s *NotificationService) deliverPush(ctx context.Context, user *domain.User, n *domain.Notification) {
	if !user.Preferences.PushNotifications || len(user.FCMTokens) == 0 {
		return
	}

	invalid, err := s.push.Send(ctx, user.FCMTokens, n.Title, n.Message, map[string]string{
		"notificationId": n.ID,
		"eventType":      n.EventType,
		"cardId":         n.CardID,
	})
	if err != nil {
		log.Printf("push delivery failed for user %s: %v", user.ID, err)
		return
	}
	if len(invalid) > 0 {
		if err := s.users.RemoveFCMTokens(ctx, user.ID, invalid); err != nil {
			log.Printf("failed to prune %d invalid fcm tokens for user %s: %v", len(invalid), user.ID, err)
		}
	}
}

// deliverEmail renders the template for the event type and sends with a
// bounded exponential-backoff retry. Exhaustion is logged, never propagated.
func (s *NotificationService) deliverEmail(user *domain.User, n *domain.Notification) {
	if !user.Preferences.EmailNotifications {
		return
	}

	subject, body := renderEmail(n)

	var err error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		if err = s.mail.Send(user.Email, subject, body); err == nil {
			return
		}
		if attempt < s.retry.MaxAttempts {
			s.sleep(s.retry.Delay(attempt))
		}
	}
	log.Printf("email delivery to %s failed after %d attempts: %v", user.Email, s.retry.MaxAttempts, err)
}

// renderEmail maps the notification's event type to an email template. The
// switch is exhaustive over the qualifying types.
func renderEmail(n *domain.Notification) (subject, body string) {
	switch n.EventType {
	case domain.EventReviewCompleted:
		subject = "Nueva reseña en " + n.Data.BusinessName
		if n.Data.Rating != nil {
			body = fmt.Sprintf("¡Felicidades! Recibiste una reseña de %d estrellas en %s.\n\nTarjeta: %s",
				*n.Data.Rating, n.Data.BusinessName, n.Data.CardName)
		} else {
			body = fmt.Sprintf("¡Felicidades! Recibiste una nueva reseña en %s.\n\nTarjeta: %s",
				n.Data.BusinessName, n.Data.CardName)
		}
	case domain.EventScan:
		subject = "Nueva visita a " + n.Data.BusinessName
		body = fmt.Sprintf("Alguien escaneó tu tarjeta de %s.", n.Data.BusinessName)
	default:
		subject = n.Title
		body = n.Message
	}
	return subject, body
}

// List returns a page of the user's notifications.
func (s *NotificationService) List(ctx context.Context, userID string, page, limit int, unreadOnly bool) (*domain.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	notifications, err := s.notifications.ListByUser(ctx, userID, page, limit, unreadOnly)
	if err != nil {
		return nil, domain.ErrInternal("failed to list notifications", err)
	}
	total, err := s.notifications.Count(ctx, userID, unreadOnly)
	if err != nil {
		return nil, domain.ErrInternal("failed to count notifications", err)
	}
	unread, err := s.notifications.Count(ctx, userID, true)
	if err != nil {
		return nil, domain.ErrInternal("failed to count unread notifications", err)
	}

	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	return &domain.NotificationPage{
		Notifications: notifications,
		Total:         total,
		Page:          page,
		Limit:         limit,
		UnreadCount:   unread,
	}, nil
}

// UnreadBacklog returns the unread notifications pushed to a session on
// connect, newest first, capped.
func (s *NotificationService) UnreadBacklog(ctx context.Context, userID string) ([]*domain.Notification, error) {
	backlog, err := s.notifications.ListUnread(ctx, userID, unreadBacklogLimit)
	if err != nil {
		return nil, err
	}
	if backlog == nil {
		backlog = []*domain.Notification{}
	}
	return backlog, nil
}

// MarkRead flips the given notifications to read. The ownership check is
// all-or-nothing: if any id does not belong to the user, nothing is marked.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return domain.ErrBadRequest("no notification ids given")
	}

	owned, err := s.notifications.CountOwnedBy(ctx, userID, ids)
	if err != nil {
		return domain.ErrInternal("failed to check notification ownership", err)
	}
	if owned != len(ids) {
		return domain.ErrForbidden("one or more notifications do not belong to you")
	}

	if err := s.notifications.MarkRead(ctx, userID, ids); err != nil {
		return domain.ErrInternal("failed to mark notifications read", err)
	}
	return nil
}

// MarkAllRead flips every notification of the user to read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return domain.ErrInternal("failed to mark notifications read", err)
	}
	return nil
}

// Delete removes a notification owned by the user.
func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.notifications.Delete(ctx, userID, id)
	if err != nil {
		return domain.ErrInternal("failed to delete notification", err)
	}
	if !deleted {
		return domain.ErrNotFound("notification not found")
	}
	return nil
}

// AddFCMToken registers a push token for the user.
func (s *NotificationService) AddFCMToken(ctx context.Context, userID, token string) error {
	if token == "" {
		return domain.ErrBadRequest("token is required")
	}
	if err := s.users.AddFCMToken(ctx, userID, token); err != nil {
		return domain.ErrInternal("failed to register token", err)
	}
	return nil
}

// RemoveFCMToken unregisters a push token.
func (s *NotificationService) RemoveFCMToken(ctx context.Context, userID, token string) error {
	if token == "" {
		return domain.ErrBadRequest("token is required")
	}
	if err := s.users.RemoveFCMTokens(ctx, userID, []string{token}); err != nil {
		return domain.ErrInternal("failed to remove token", err)
	}
	return nil
}

// UpdatePreferences applies a partial preference update and returns the
// resulting preferences.
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID string, req *domain.UpdatePreferencesRequest) (*domain.NotificationPreferences, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}

	prefs := user.Preferences
	if req.EmailNotifications != nil {
		prefs.EmailNotifications = *req.EmailNotifications
	}
	if req.PushNotifications != nil {
		prefs.PushNotifications = *req.PushNotifications
	}
	if req.DailyReports != nil {
		prefs.DailyReports = *req.DailyReports
	}

	if err := s.users.UpdatePreferences(ctx, userID, prefs); err != nil {
		return nil, domain.ErrInternal("failed to update preferences", err)
	}
	return &prefs, nil
}
