package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alumnethq/alumnet/internal/mentions"
	"github.com/alumnethq/alumnet/internal/models"
	apperrors "github.com/alumnethq/alumnet/pkg/errors"
	"github.com/alumnethq/alumnet/pkg/logger"
)

const postSnippetRunes = 160

// CreatePostInput defines the payload for a new feed post.
type CreatePostInput struct {
	AuthorID string
	Title    string
	Body     string
}

// AddCommentInput defines the payload for a new comment.
type AddCommentInput struct {
	PostID   string
	AuthorID string
	Body     string
}

// ListPostsInput pages through the feed.
type ListPostsInput struct {
	Limit  int
	Offset int
}

// PostService manages the feed: posts, comments, and the notifications each
// one fans out.
type PostService struct {
	db         *gorm.DB
	users      *UserService
	dispatcher *Dispatcher
	log        *zap.Logger
}

// NewPostService constructs a PostService.
func NewPostService(db *gorm.DB, users *UserService, dispatcher *Dispatcher) (*PostService, error) {
	if db == nil {
		return nil, errors.New("post service: db is required")
	}
	if users == nil {
		return nil, errors.New("post service: user service is required")
	}
	return &PostService{
		db:         db,
		users:      users,
		dispatcher: dispatcher,
		log:        logger.WithModule("posts"),
	}, nil
}

// Create persists a new post and notifies members mentioned in its body.
func (s *PostService) Create(ctx context.Context, input CreatePostInput) (*models.Post, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	body := strings.TrimSpace(input.Body)
	if title == "" || body == "" {
		return nil, apperrors.NewBadRequest("title and body are required")
	}
	authorID := strings.TrimSpace(input.AuthorID)
	if authorID == "" {
		return nil, errors.New("post service: author id is required")
	}

	post := models.Post{
		AuthorID: authorID,
		Title:    title,
		Body:     body,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("post service: create post: %w", err)
	}

	s.dispatchMentions(ctx, authorID, post.ID, body, models.NotificationNewPost, nil)
	return s.Get(ctx, post.ID)
}

// Get loads a single post with its author resolved.
func (s *PostService) Get(ctx context.Context, postID string) (*models.Post, error) {
	ctx = ensureContext(ctx)

	var post models.Post
	if err := s.db.WithContext(ctx).
		Preload("Author").
		First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("post service: load post: %w", err)
	}
	return &post, nil
}

// List returns a page of the feed, newest first.
func (s *PostService) List(ctx context.Context, input ListPostsInput) ([]models.Post, error) {
	ctx = ensureContext(ctx)

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Offset(max(0, input.Offset)).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("post service: list posts: %w", err)
	}
	return posts, nil
}

// Delete removes a post. Only the author or an admin may delete; the caller
// passes its own identity and admin flag.
func (s *PostService) Delete(ctx context.Context, postID, requesterID string, requesterIsAdmin bool) error {
	ctx = ensureContext(ctx)

	post, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != requesterID && !requesterIsAdmin {
		return apperrors.ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, "id = ?", postID).Error
	})
	if err != nil {
		return fmt.Errorf("post service: delete post: %w", err)
	}
	return nil
}

// AddComment persists a comment, notifies the post author, and notifies any
// members mentioned in the comment body.
func (s *PostService) AddComment(ctx context.Context, input AddCommentInput) (*models.Comment, error) {
	ctx = ensureContext(ctx)

	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, apperrors.NewBadRequest("comment body is required")
	}
	authorID := strings.TrimSpace(input.AuthorID)
	if authorID == "" {
		return nil, errors.New("post service: author id is required")
	}

	post, err := s.Get(ctx, input.PostID)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: authorID,
		Body:     body,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("post service: create comment: %w", err)
	}

	snip := snippet(body, postSnippetRunes)

	// Notify the post author about the reply, unless they wrote it themselves.
	skip := map[string]struct{}{}
	if s.dispatcher != nil && post.AuthorID != authorID {
		skip[post.AuthorID] = struct{}{}
		err := s.dispatcher.Dispatch(ctx, Event{
			RecipientID: post.AuthorID,
			SenderID:    authorID,
			Type:        models.NotificationNewComment,
			Snippet:     snip,
			PostID:      post.ID,
		})
		if err != nil {
			s.log.Warn("comment dispatch failed",
				zap.String("post_id", post.ID),
				zap.String("recipient_id", post.AuthorID),
				zap.Error(err))
		}
	}

	s.dispatchMentions(ctx, authorID, post.ID, body, models.NotificationMentionComment, skip)

	if err := s.db.WithContext(ctx).Preload("Author").First(&comment, "id = ?", comment.ID).Error; err != nil {
		return nil, fmt.Errorf("post service: reload comment: %w", err)
	}
	return &comment, nil
}

// ListComments returns a post's comments oldest first.
func (s *PostService) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	ctx = ensureContext(ctx)

	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("post service: list comments: %w", err)
	}
	return comments, nil
}

// DeleteComment removes a comment. Only the comment author or an admin may
// delete.
func (s *PostService) DeleteComment(ctx context.Context, commentID, requesterID string, requesterIsAdmin bool) error {
	ctx = ensureContext(ctx)

	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("post service: load comment: %w", err)
	}
	if comment.AuthorID != requesterID && !requesterIsAdmin {
		return apperrors.ErrForbidden
	}

	if err := s.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", commentID).Error; err != nil {
		return fmt.Errorf("post service: delete comment: %w", err)
	}
	return nil
}

// dispatchMentions notifies each distinct approved member mentioned in text,
// skipping the sender and anyone in skip (already notified another way).
func (s *PostService) dispatchMentions(ctx context.Context, senderID, postID, text, notificationType string, skip map[string]struct{}) {
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
			zap.String("post_id", postID),
			zap.Error(err))
		return
	}

	snip := snippet(text, postSnippetRunes)
	notified := make(map[string]struct{}, len(mentioned))
	for _, user := range mentioned {
		if user.ID == senderID {
			continue
		}
		if _, done := notified[user.ID]; done {
			continue
		}
		if skip != nil {
			if _, done := skip[user.ID]; done {
				continue
			}
		}
		notified[user.ID] = struct{}{}

		err := s.dispatcher.Dispatch(ctx, Event{
			RecipientID: user.ID,
			SenderID:    senderID,
			Type:        notificationType,
			Snippet:     snip,
			PostID:      postID,
		})
		if err != nil {
			s.log.Warn("mention dispatch failed",
				zap.String("post_id", postID),
				zap.String("recipient_id", user.ID),
				zap.Error(err))
		}
	}
}
