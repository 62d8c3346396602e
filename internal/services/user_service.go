package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/alumnethq/alumnet/internal/models"
	apperrors "github.com/alumnethq/alumnet/pkg/errors"
	"github.com/alumnethq/alumnet/pkg/metrics"
)

// UserSummary is the display-oriented projection of a user attached to
// messages, notifications, and member lists.
type UserSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
}

// RegisterInput defines the payload for a new registration.
type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	DisplayName    string
	GraduationYear int
}

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	DisplayName    *string
	Avatar         *string
	Bio            *string
	GraduationYear *int
}

// ListUsersInput filters the member directory.
type ListUsersInput struct {
	Search string
	Limit  int
	Offset int
}

// UserService manages accounts, the approval workflow, and directory queries.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Register creates a new unapproved account. The account stays invisible to
// the community until an admin approves it.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	displayName := strings.TrimSpace(input.DisplayName)

	if username == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewBadRequest("username, email, and password are required")
	}
	if displayName == "" {
		displayName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := models.User{
		Username:       username,
		Email:          email,
		Password:       string(hash),
		DisplayName:    displayName,
		GraduationYear: input.GraduationYear,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	return &user, nil
}

// Authenticate verifies credentials against the stored hash and records the
// login time. Unapproved users may authenticate; content routes reject them.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" || password == "" {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, login).
		First(&user).Error
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("user service: record login: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, nil
}

// GetByID loads a single user.
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// List returns approved members for the directory, optionally filtered by a
// case-insensitive display-name search.
func (s *UserService) List(ctx context.Context, input ListUsersInput) ([]models.User, error) {
	ctx = ensureContext(ctx)

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := s.db.WithContext(ctx).
		Where("is_approved = ?", true).
		Order("display_name ASC").
		Limit(limit).
		Offset(max(0, input.Offset))

	if search := strings.TrimSpace(input.Search); search != "" {
		query = query.Where("display_name LIKE ?", "%"+search+"%")
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: list users: %w", err)
	}
	return users, nil
}

// UpdateProfile applies the supplied profile changes to the user's own record.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	updates := map[string]any{}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, apperrors.NewBadRequest("display name must not be empty")
		}
		updates["display_name"] = name
	}
	if input.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*input.Avatar)
	}
	if input.Bio != nil {
		updates["bio"] = strings.TrimSpace(*input.Bio)
	}
	if input.GraduationYear != nil {
		updates["graduation_year"] = *input.GraduationYear
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", userID).
			Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("user service: update profile: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, apperrors.ErrNotFound
		}
	}

	return s.GetByID(ctx, userID)
}

// ListPending returns accounts awaiting approval, oldest first.
func (s *UserService) ListPending(ctx context.Context) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("is_approved = ?", false).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("user service: list pending: %w", err)
	}
	return users, nil
}

// Approve marks a pending account as approved.
func (s *UserService) Approve(ctx context.Context, userID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_approved = ?", userID, false).
		Updates(map[string]any{
			"is_approved": true,
			"approved_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("user service: approve user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}

	return s.GetByID(ctx, userID)
}

// Reject removes a pending account entirely.
func (s *UserService) Reject(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND is_approved = ?", userID, false).
		Delete(&models.User{})
	if result.Error != nil {
		return fmt.Errorf("user service: reject user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindApprovedByDisplayNames resolves mention labels to approved users. Labels
// that match no one are silently skipped.
func (s *UserService) FindApprovedByDisplayNames(ctx context.Context, names []string) ([]models.User, error) {
	ctx = ensureContext(ctx)

	names = uniqueStrings(names)
	if len(names) == 0 {
		return nil, nil
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("display_name IN ? AND is_approved = ?", names, true).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("user service: resolve display names: %w", err)
	}
	return users, nil
}

func summariseUser(user models.User) UserSummary {
	return UserSummary{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Avatar:      user.Avatar,
	}
}
