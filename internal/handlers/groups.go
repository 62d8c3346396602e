package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alumnethq/alumnet/internal/middleware"
	"github.com/alumnethq/alumnet/internal/services"
	"github.com/alumnethq/alumnet/pkg/errors"
	"github.com/alumnethq/alumnet/pkg/response"
)

// GroupHandler exposes interest groups, membership, and chat history.
type GroupHandler struct {
	groups *services.GroupService
	chat   *services.ChatService
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups *services.GroupService, chat *services.ChatService) *GroupHandler {
	return &GroupHandler{groups: groups, chat: chat}
}

type createGroupRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=2000"`
}

// Create makes a new group with the caller as first member.
func (h *GroupHandler) Create(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req createGroupRequest
	if err := bindAndValidate(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	group, err := h.groups.Create(c.Request.Context(), services.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   user.ID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, group)
}

// List returns all groups.
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, groups)
}

// Get returns one group.
func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.groups.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, group)
}

// Join adds the caller to the group. Idempotent.
func (h *GroupHandler) Join(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.groups.Join(c.Request.Context(), strings.TrimSpace(c.Param("id")), user.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"joined": true})
}

// Leave removes the caller from the group.
func (h *GroupHandler) Leave(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.groups.Leave(c.Request.Context(), strings.TrimSpace(c.Param("id")), user.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"left": true})
}

// Members lists the group's members.
func (h *GroupHandler) Members(c *gin.Context) {
	members, err := h.groups.Members(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, members)
}

// Messages returns a page of the group's chat history. Membership is enforced
// here, before the client is allowed near the chat view.
func (h *GroupHandler) Messages(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	groupID := strings.TrimSpace(c.Param("id"))
	member, err := h.groups.IsMember(c.Request.Context(), groupID, user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !member {
		response.Error(c, errors.ErrForbidden)
		return
	}

	input := services.ListMessagesInput{
		GroupID: groupID,
		Limit:   parseIntQuery(c, "limit", 50),
	}
	if raw := strings.TrimSpace(c.Query("before")); raw != "" {
		before, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			response.Error(c, errors.NewBadRequest("before must be an RFC 3339 timestamp"))
			return
		}
		input.Before = before
	}

	messages, err := h.chat.ListMessages(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, messages)
}
