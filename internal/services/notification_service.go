package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/alumnethq/alumnet/internal/models"
	apperrors "github.com/alumnethq/alumnet/pkg/errors"
)

// NotificationDTO is the API-friendly notification payload with related
// display data resolved at read time.
type NotificationDTO struct {
	ID          string       `json:"id"`
	RecipientID string       `json:"recipient_id"`
	Sender      *UserSummary `json:"sender,omitempty"`
	Type        string       `json:"type"`
	Snippet     string       `json:"snippet,omitempty"`
	GroupID     string       `json:"group_id,omitempty"`
	GroupName   string       `json:"group_name,omitempty"`
	PostID      string       `json:"post_id,omitempty"`
	PostTitle   string       `json:"post_title,omitempty"`
	IsRead      bool         `json:"is_read"`
	CreatedAt   time.Time    `json:"created_at"`
	ReadAt      *time.Time   `json:"read_at,omitempty"`
}

// CreateNotificationInput defines attributes required to persist a notification.
type CreateNotificationInput struct {
	RecipientID string
	SenderID    string
	Type        string
	Snippet     string
	GroupID     string
	PostID      string
}

// ListNotificationsInput defines filters for querying a recipient's notifications.
type ListNotificationsInput struct {
	RecipientID string
	Limit       int
	Offset      int
	UnreadOnly  bool
}

// NotificationService is the durable store for notification records. Live
// delivery and digest emails are the dispatcher's concern; this service only
// persists and queries.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db}, nil
}

// Create persists a new unread notification and returns it with related
// display data resolved.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		return nil, errors.New("notification service: recipient id is required")
	}
	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		return nil, errors.New("notification service: type is required")
	}

	notification := models.Notification{
		RecipientID: recipientID,
		Type:        notificationType,
		Snippet:     strings.TrimSpace(input.Snippet),
	}
	if senderID := strings.TrimSpace(input.SenderID); senderID != "" {
		notification.SenderID = &senderID
	}
	if groupID := strings.TrimSpace(input.GroupID); groupID != "" {
		notification.GroupID = &groupID
	}
	if postID := strings.TrimSpace(input.PostID); postID != "" {
		notification.PostID = &postID
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	return s.Get(ctx, notification.ID)
}

// Get loads a single notification with display data resolved.
func (s *NotificationService) Get(ctx context.Context, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	var row models.Notification
	if err := s.db.WithContext(ctx).
		Preload("Sender").
		Preload("Group").
		Preload("Post").
		First(&row, "id = ?", notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	dto := mapNotification(row)
	return &dto, nil
}

// CountUnread returns the number of unread notifications for the recipient.
func (s *NotificationService) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("notification service: count unread: %w", err)
	}
	return count, nil
}

// MarkRead flips one of the recipient's notifications to read. Scoping the
// update by recipient id is what enforces ownership; a foreign requester id
// simply finds nothing.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("notification service: mark read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}

	return s.Get(ctx, notificationID)
}

// MarkAllRead flips every unread notification belonging to the recipient.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("notification service: mark all read: %w", err)
	}
	return nil
}

// ListForRecipient returns the recipient's notifications newest first, with
// sender, group, and post display data resolved by joins at read time.
func (s *NotificationService) ListForRecipient(ctx context.Context, input ListNotificationsInput) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)

	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		return nil, errors.New("notification service: recipient id is required")
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := s.db.WithContext(ctx).
		Preload("Sender").
		Preload("Group").
		Preload("Post").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Offset(max(0, input.Offset))

	if input.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var rows []models.Notification
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}

	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items, nil
}

// PruneRead deletes read notifications older than the cutoff, returning the
// number of rows removed. Used by the maintenance cleaner.
func (s *NotificationService) PruneRead(ctx context.Context, olderThan time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, olderThan).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: prune read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func mapNotification(row models.Notification) NotificationDTO {
	dto := NotificationDTO{
		ID:          row.ID,
		RecipientID: row.RecipientID,
		Type:        row.Type,
		Snippet:     row.Snippet,
		IsRead:      row.IsRead,
		CreatedAt:   row.CreatedAt,
		ReadAt:      row.ReadAt,
	}

	if row.Sender != nil {
		summary := summariseUser(*row.Sender)
		dto.Sender = &summary
	}
	if row.GroupID != nil {
		dto.GroupID = *row.GroupID
	}
	if row.Group != nil {
		dto.GroupName = row.Group.Name
	}
	if row.PostID != nil {
		dto.PostID = *row.PostID
	}
	if row.Post != nil {
		dto.PostTitle = row.Post.Title
	}

	return dto
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
