package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/alumnethq/alumnet/internal/auth"
	"github.com/alumnethq/alumnet/internal/models"
	"github.com/alumnethq/alumnet/internal/services"
	"github.com/alumnethq/alumnet/pkg/errors"
	"github.com/alumnethq/alumnet/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
	CtxUserKey   = "authUser"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)

		c.Next()
	}
}

// RequireAdmin rejects requests whose token does not carry the admin claim.
// Must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok || !claims.Admin {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireApproved loads the authenticated user and rejects accounts still
// awaiting approval. The loaded record is stashed in the context for handlers.
// Must run after Auth.
func RequireApproved(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !user.IsApproved {
			response.Error(c, errors.ErrAccountPending)
			c.Abort()
			return
		}

		c.Set(CtxUserKey, user)
		c.Next()
	}
}

// ClaimsFromContext extracts validated JWT claims stored by Auth.
func ClaimsFromContext(c *gin.Context) (*iauth.Claims, bool) {
	value, exists := c.Get(CtxClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*iauth.Claims)
	return claims, ok
}

// UserIDFromContext extracts the authenticated user id stored by Auth.
func UserIDFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get(CtxUserIDKey)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}

// UserFromContext extracts the full user record stored by RequireApproved.
func UserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(CtxUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
