package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alumnethq/alumnet/internal/mentions"
	"github.com/alumnethq/alumnet/internal/models"
	apperrors "github.com/alumnethq/alumnet/pkg/errors"
	"github.com/alumnethq/alumnet/pkg/logger"
)

const (
	eventReceiveMessage = "receive_message"

	chatSnippetRunes = 120
)

// Broadcaster fans a payload out to every connection subscribed to a group.
type Broadcaster interface {
	BroadcastToGroup(groupID, event string, payload any)
}

// MessageDTO is the display-resolved chat message delivered to clients.
type MessageDTO struct {
	ID        string      `json:"id"`
	GroupID   string      `json:"group_id"`
	Sender    UserSummary `json:"sender"`
	Body      string      `json:"body"`
	CreatedAt time.Time   `json:"created_at"`
}

// ListMessagesInput pages through a group's history.
type ListMessagesInput struct {
	GroupID string
	Limit   int
	Before  time.Time
}

// ChatService persists chat messages, broadcasts them to the group, and fans
// out mention notifications afterwards.
type ChatService struct {
	db          *gorm.DB
	groups      *GroupService
	users       *UserService
	dispatcher  *Dispatcher
	broadcaster Broadcaster
	log         *zap.Logger
}

// NewChatService constructs a ChatService.
func NewChatService(db *gorm.DB, groups *GroupService, users *UserService, dispatcher *Dispatcher, broadcaster Broadcaster) (*ChatService, error) {
	if db == nil {
		return nil, errors.New("chat service: db is required")
	}
	if groups == nil || users == nil {
		return nil, errors.New("chat service: group and user services are required")
	}
	return &ChatService{
		db:          db,
		groups:      groups,
		users:       users,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		log:         logger.WithModule("chat"),
	}, nil
}

// HandleMessage processes an inbound chat message from an authenticated
// connection: persist, broadcast to the group, then dispatch mention
// notifications. The broadcast always precedes dispatch so that chat latency
// never pays for notification fan-out, and a dispatch failure never retracts
// an already-broadcast message.
func (s *ChatService) HandleMessage(ctx context.Context, sender *models.User, groupID, text string) error {
	ctx = ensureContext(ctx)

	if sender == nil {
		return errors.New("chat service: sender is required")
	}
	text = strings.TrimSpace(text)
	groupID = strings.TrimSpace(groupID)
	if text == "" || groupID == "" {
		return apperrors.NewBadRequest("group id and message text are required")
	}

	member, err := s.groups.IsMember(ctx, groupID, sender.ID)
	if err != nil {
		return err
	}
	if !member {
		return apperrors.ErrForbidden
	}

	message := models.Message{
		GroupID:  groupID,
		SenderID: sender.ID,
		Body:     text,
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return fmt.Errorf("chat service: persist message: %w", err)
	}

	dto := MessageDTO{
		ID:        message.ID,
		GroupID:   message.GroupID,
		Sender:    summariseUser(*sender),
		Body:      message.Body,
		CreatedAt: message.CreatedAt,
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToGroup(groupID, eventReceiveMessage, dto)
	}

	s.dispatchChatMentions(ctx, sender, groupID, text)
	return nil
}

// dispatchChatMentions resolves mention labels to approved group members and
// notifies each distinct one, excluding the sender. Failures are logged and
// never affect the already-delivered message.
func (s *ChatService) dispatchChatMentions(ctx context.Context, sender *models.User, groupID, text string) {
	if s.dispatcher == nil {
		return
	}

	labels := mentions.Parse(text)
	if len(labels) == 0 {
		return
	}

	mentioned, err := s.users.FindApprovedByDisplayNames(ctx, labels)
	if err != nil {
		s.log.Warn("mention resolution failed",
			zap.String("group_id", groupID),
			zap.Error(err))
		return
	}
	if len(mentioned) == 0 {
		return
	}

	snip := snippet(text, chatSnippetRunes)
	notified := make(map[string]struct{}, len(mentioned))
	for _, user := range mentioned {
		if user.ID == sender.ID {
			continue
		}
		if _, done := notified[user.ID]; done {
			continue
		}
		notified[user.ID] = struct{}{}

		member, err := s.groups.IsMember(ctx, groupID, user.ID)
		if err != nil {
			s.log.Warn("mention membership check failed",
				zap.String("group_id", groupID),
				zap.String("user_id", user.ID),
				zap.Error(err))
			continue
		}
		if !member {
			continue
		}

		err = s.dispatcher.Dispatch(ctx, Event{
			RecipientID: user.ID,
			SenderID:    sender.ID,
			Type:        models.NotificationMentionChat,
			Snippet:     snip,
			GroupID:     groupID,
		})
		if err != nil {
			s.log.Warn("mention dispatch failed",
				zap.String("group_id", groupID),
				zap.String("recipient_id", user.ID),
				zap.Error(err))
		}
	}
}

// ListMessages returns a page of the group's history in chronological order.
// Before, when set, restricts the page to messages created strictly earlier,
// so clients scroll backwards by passing the oldest timestamp they hold.
func (s *ChatService) ListMessages(ctx context.Context, input ListMessagesInput) ([]MessageDTO, error) {
	ctx = ensureContext(ctx)

	groupID := strings.TrimSpace(input.GroupID)
	if groupID == "" {
		return nil, errors.New("chat service: group id is required")
	}

	limit := input.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := s.db.WithContext(ctx).
		Preload("Sender").
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Limit(limit)
	if !input.Before.IsZero() {
		query = query.Where("created_at < ?", input.Before)
	}

	var rows []models.Message
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("chat service: list messages: %w", err)
	}

	// Query newest-first for the limit, deliver oldest-first for display.
	items := make([]MessageDTO, len(rows))
	for i, row := range rows {
		dto := MessageDTO{
			ID:        row.ID,
			GroupID:   row.GroupID,
			Body:      row.Body,
			CreatedAt: row.CreatedAt,
		}
		if row.Sender != nil {
			dto.Sender = summariseUser(*row.Sender)
		}
		items[len(rows)-1-i] = dto
	}
	return items, nil
}
