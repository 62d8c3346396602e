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

// UserHandler exposes the member directory and profile endpoints.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List returns the approved member directory.
func (h *UserHandler) List(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 25)
	offset := parseIntQuery(c, "offset", 0)

	users, err := h.users.List(c.Request.Context(), services.ListUsersInput{
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, users, &response.Meta{Limit: limit, Offset: offset})
}

// Get returns a single member's profile. Unapproved profiles are hidden from
// everyone except admins.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	if !user.IsApproved {
		claims, ok := middleware.ClaimsFromContext(c)
		if !ok || !claims.Admin {
			response.Error(c, errors.ErrNotFound)
			return
		}
	}

	response.Success(c, http.StatusOK, user)
}

type updateProfileRequest struct {
	DisplayName    *string `json:"display_name" validate:"omitempty,max=64"`
	Avatar         *string `json:"avatar" validate:"omitempty,max=512"`
	Bio            *string `json:"bio" validate:"omitempty,max=2000"`
	GraduationYear *int    `json:"graduation_year" validate:"omitempty,min=1900,max=2100"`
}

// UpdateProfile applies changes to the caller's own profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileInput{
		DisplayName:    req.DisplayName,
		Avatar:         req.Avatar,
		Bio:            req.Bio,
		GraduationYear: req.GraduationYear,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}
