package services

import (
	"context"
	"errors"

	"github.com/alumnethq/alumnet/internal/auth"
	"github.com/alumnethq/alumnet/internal/models"
	apperrors "github.com/alumnethq/alumnet/pkg/errors"
)

// TokenAuthenticator resolves a bearer token to its full user record. The chat
// hub uses it to authenticate handshake events; only approved accounts may
// open a live session.
type TokenAuthenticator struct {
	jwt   *auth.JWTService
	users *UserService
}

// NewTokenAuthenticator constructs a TokenAuthenticator.
func NewTokenAuthenticator(jwt *auth.JWTService, users *UserService) (*TokenAuthenticator, error) {
	if jwt == nil || users == nil {
		return nil, errors.New("token authenticator: jwt service and user service are required")
	}
	return &TokenAuthenticator{jwt: jwt, users: users}, nil
}

// Authenticate validates the token and loads the user it names.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := a.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !user.IsApproved {
		return nil, apperrors.ErrAccountPending
	}
	return user, nil
}
