package services

import (
	"context"
	"errors"
	"fmt"
	"html"

	"go.uber.org/zap"

	"github.com/alumnethq/alumnet/pkg/logger"
	"github.com/alumnethq/alumnet/pkg/mail"
	"github.com/alumnethq/alumnet/pkg/metrics"
)

const eventNewNotification = "new_notification"

// Pusher delivers a live payload to a user's open connection, if any. It
// reports whether a connection received the payload.
type Pusher interface {
	PushToUser(userID, event string, payload any) bool
}

// Event is a single notification to fan out: persist it, push it to the
// recipient's live connection, and send a digest email when the unread pile
// crosses the threshold.
type Event struct {
	RecipientID string
	SenderID    string
	Type        string
	Snippet     string
	GroupID     string
	PostID      string
}

// Dispatcher fans notifications out across the three delivery channels. Only
// the durable write is load-bearing: a failed push means the recipient is
// offline, and a failed email is logged and forgotten.
type Dispatcher struct {
	notifications *NotificationService
	users         *UserService
	pusher        Pusher
	mailer        mail.Mailer
	threshold     int64
	log           *zap.Logger
}

// NewDispatcher constructs a Dispatcher. The digest email fires when a
// recipient's unread count lands exactly on threshold.
func NewDispatcher(notifications *NotificationService, users *UserService, pusher Pusher, mailer mail.Mailer, threshold int64) (*Dispatcher, error) {
	if notifications == nil {
		return nil, errors.New("dispatcher: notification service is required")
	}
	if users == nil {
		return nil, errors.New("dispatcher: user service is required")
	}
	if threshold <= 0 {
		threshold = 10
	}
	return &Dispatcher{
		notifications: notifications,
		users:         users,
		pusher:        pusher,
		mailer:        mailer,
		threshold:     threshold,
		log:           logger.WithModule("dispatcher"),
	}, nil
}

// Dispatch persists the event and fans it out. The returned error reflects the
// durable write only; push and email failures are logged and swallowed so one
// recipient's delivery trouble never aborts a caller's loop.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	ctx = ensureContext(ctx)

	created, err := d.notifications.Create(ctx, CreateNotificationInput{
		RecipientID: event.RecipientID,
		SenderID:    event.SenderID,
		Type:        event.Type,
		Snippet:     event.Snippet,
		GroupID:     event.GroupID,
		PostID:      event.PostID,
	})
	if err != nil {
		return fmt.Errorf("dispatcher: persist notification: %w", err)
	}

	delivery := "stored"
	if d.pusher != nil && d.pusher.PushToUser(event.RecipientID, eventNewNotification, created) {
		delivery = "pushed"
	}
	metrics.NotificationsDispatched.WithLabelValues(created.Type, delivery).Inc()

	count, err := d.notifications.CountUnread(ctx, event.RecipientID)
	if err != nil {
		d.log.Warn("unread count failed after dispatch",
			zap.String("recipient_id", event.RecipientID),
			zap.Error(err))
		return nil
	}

	// Exactly-at-threshold keeps this one email per pile of unread: once the
	// count passes the line, later dispatches land above it and stay silent
	// until the recipient catches up.
	if count == d.threshold {
		d.sendDigest(ctx, event.RecipientID, count)
	}

	return nil
}

func (d *Dispatcher) sendDigest(ctx context.Context, recipientID string, unread int64) {
	if d.mailer == nil {
		return
	}

	recipient, err := d.users.GetByID(ctx, recipientID)
	if err != nil {
		metrics.DigestEmails.WithLabelValues("failed").Inc()
		d.log.Warn("digest recipient lookup failed",
			zap.String("recipient_id", recipientID),
			zap.Error(err))
		return
	}

	msg := mail.Message{
		To:      []string{recipient.Email},
		Subject: fmt.Sprintf("You have %d unread notifications", unread),
		Body: fmt.Sprintf(
			"<p>Hi %s,</p><p>You have %d unread notifications waiting for you. Sign in to catch up with your community.</p>",
			html.EscapeString(recipient.DisplayName), unread),
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		if errors.Is(err, mail.ErrSMTPDisabled) {
			return
		}
		metrics.DigestEmails.WithLabelValues("failed").Inc()
		d.log.Warn("digest email failed",
			zap.String("recipient_id", recipientID),
			zap.Error(err))
		return
	}

	metrics.DigestEmails.WithLabelValues("sent").Inc()
	d.log.Info("digest email sent",
		zap.String("recipient_id", recipientID),
		zap.Int64("unread", unread))
}
