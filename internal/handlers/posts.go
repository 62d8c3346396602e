package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alumnethq/alumnet/internal/middleware"
	"github.com/alumnethq/alumnet/internal/services"
	"github.com/alumnethq/alumnet/pkg/errors"
	"github.com/alumnethq/alumnet/pkg/response"
)

// PostHandler exposes the feed: posts and their comments.
type PostHandler struct {
	posts *services.PostService
}

// NewPostHandler constructs a PostHandler.
func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type createPostRequest struct {
	Title string `json:"title" validate:"required,max=255"`
	Body  string `json:"body" validate:"required,max=20000"`
}

type createCommentRequest struct {
	Body string `json:"body" validate:"required,max=10000"`
}

// Create publishes a new post.
func (h *PostHandler) Create(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req createPostRequest
	if err := bindAndValidate(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	post, err := h.posts.Create(c.Request.Context(), services.CreatePostInput{
		AuthorID: user.ID,
		Title:    req.Title,
		Body:     req.Body,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, post)
}

// List returns a page of the feed.
func (h *PostHandler) List(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 25)
	offset := parseIntQuery(c, "offset", 0)

	posts, err := h.posts.List(c.Request.Context(), services.ListPostsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, posts, &response.Meta{Limit: limit, Offset: offset})
}

// Get returns a single post.
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, post)
}

// Delete removes a post (author or admin only).
func (h *PostHandler) Delete(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	err := h.posts.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id")), user.ID, user.IsAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// AddComment attaches a comment to a post.
func (h *PostHandler) AddComment(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req createCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	comment, err := h.posts.AddComment(c.Request.Context(), services.AddCommentInput{
		PostID:   strings.TrimSpace(c.Param("id")),
		AuthorID: user.ID,
		Body:     req.Body,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, comment)
}

// ListComments returns a post's comments oldest first.
func (h *PostHandler) ListComments(c *gin.Context) {
	comments, err := h.posts.ListComments(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, comments)
}

// DeleteComment removes a comment (author or admin only).
func (h *PostHandler) DeleteComment(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	err := h.posts.DeleteComment(c.Request.Context(), strings.TrimSpace(c.Param("commentId")), user.ID, user.IsAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
