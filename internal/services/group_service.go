package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/alumnethq/alumnet/internal/models"
	apperrors "github.com/alumnethq/alumnet/pkg/errors"
)

// CreateGroupInput defines the payload for creating a group.
type CreateGroupInput struct {
	Name        string
	Description string
	CreatorID   string
}

// GroupService manages interest groups and their memberships.
type GroupService struct {
	db *gorm.DB
}

// NewGroupService constructs a GroupService.
func NewGroupService(db *gorm.DB) (*GroupService, error) {
	if db == nil {
		return nil, errors.New("group service: db is required")
	}
	return &GroupService{db: db}, nil
}

// Create makes a new group with the creator as its first member.
func (s *GroupService) Create(ctx context.Context, input CreateGroupInput) (*models.Group, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("group name is required")
	}
	creatorID := strings.TrimSpace(input.CreatorID)
	if creatorID == "" {
		return nil, errors.New("group service: creator id is required")
	}

	group := models.Group{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatorID:   creatorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		return tx.Model(&group).
			Association("Members").
			Append(&models.User{BaseModel: models.BaseModel{ID: creatorID}})
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("group service: create group: %w", err)
	}

	return s.Get(ctx, group.ID)
}

// Get loads a single group.
func (s *GroupService) Get(ctx context.Context, groupID string) (*models.Group, error) {
	ctx = ensureContext(ctx)

	var group models.Group
	if err := s.db.WithContext(ctx).
		Preload("Creator").
		First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("group service: load group: %w", err)
	}
	return &group, nil
}

// List returns all groups, alphabetically.
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	ctx = ensureContext(ctx)

	var groups []models.Group
	err := s.db.WithContext(ctx).
		Order("name ASC").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("group service: list groups: %w", err)
	}
	return groups, nil
}

// Join adds the user to the group. Joining a group the user already belongs to
// is a no-op.
func (s *GroupService) Join(ctx context.Context, groupID, userID string) error {
	ctx = ensureContext(ctx)

	group, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}

	member, err := s.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member {
		return nil
	}

	err = s.db.WithContext(ctx).
		Model(group).
		Association("Members").
		Append(&models.User{BaseModel: models.BaseModel{ID: userID}})
	if err != nil {
		return fmt.Errorf("group service: join group: %w", err)
	}
	return nil
}

// Leave removes the user from the group. Leaving a group the user is not in is
// a no-op.
func (s *GroupService) Leave(ctx context.Context, groupID, userID string) error {
	ctx = ensureContext(ctx)

	group, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).
		Model(group).
		Association("Members").
		Delete(&models.User{BaseModel: models.BaseModel{ID: userID}})
	if err != nil {
		return fmt.Errorf("group service: leave group: %w", err)
	}
	return nil
}

// IsMember reports whether the user belongs to the group.
func (s *GroupService) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).
		Table("group_members").
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("group service: membership check: %w", err)
	}
	return count > 0, nil
}

// Members returns the group's member list.
func (s *GroupService) Members(ctx context.Context, groupID string) ([]models.User, error) {
	ctx = ensureContext(ctx)

	group, err := s.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var members []models.User
	err = s.db.WithContext(ctx).
		Model(group).
		Association("Members").
		Find(&members)
	if err != nil {
		return nil, fmt.Errorf("group service: list members: %w", err)
	}
	return members, nil
}

// MemberIDs returns the ids of the group's members.
func (s *GroupService) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	ctx = ensureContext(ctx)

	var ids []string
	err := s.db.WithContext(ctx).
		Table("group_members").
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("group service: list member ids: %w", err)
	}
	return ids, nil
}
