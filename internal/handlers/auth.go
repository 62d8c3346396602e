package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/alumnethq/alumnet/internal/auth"
	"github.com/alumnethq/alumnet/internal/middleware"
	"github.com/alumnethq/alumnet/internal/services"
	"github.com/alumnethq/alumnet/pkg/errors"
	"github.com/alumnethq/alumnet/pkg/response"
)

// AuthHandler exposes registration and login endpoints.
type AuthHandler struct {
	users *services.UserService
	jwt   *iauth.JWTService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, jwt *iauth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type registerRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=32"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	DisplayName    string `json:"display_name" validate:"max=64"`
	GraduationYear int    `json:"graduation_year" validate:"omitempty,min=1900,max=2100"`
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register creates a new account awaiting admin approval.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		DisplayName:    req.DisplayName,
		GraduationYear: req.GraduationYear,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":    user,
		"pending": !user.IsApproved,
	})
}

// Login verifies credentials and issues an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: user.ID,
		Admin:  user.IsAdmin,
	})
	if err != nil {
		response.Error(c, errors.Wrap(err, "failed to issue token"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Me returns the authenticated user's own record.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}
