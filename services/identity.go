package services

import (
	"context"
	"errors"
	"time"

	"github.com/tnpportal/portal/models"
	"github.com/tnpportal/portal/utils"
)

// Identity is a verified caller.
type Identity struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Role   models.Role `json:"role"`
	Active bool        `json:"active"`
}

// Verifier turns a bearer credential into an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// UserFinder loads the user record behind a token subject.
type UserFinder interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
}

// AuthError carries the reason a credential was rejected.
// It matches ErrUnauthenticated under errors.Is.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// Is reports ErrUnauthenticated as the error kind.
func (e *AuthError) Is(target error) bool { return target == ErrUnauthenticated }

// TokenVerifier verifies HS256 JWTs and resolves them to active users.
type TokenVerifier struct {
	secret    string
	users     UserFinder
	blacklist *utils.TokenBlacklist
}

// NewTokenVerifier creates a verifier. blacklist may be nil.
func NewTokenVerifier(secret string, users UserFinder, blacklist *utils.TokenBlacklist) *TokenVerifier {
	return &TokenVerifier{secret: secret, users: users, blacklist: blacklist}
}

// Verify implements Verifier.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, &AuthError{Reason: "no token, authorization denied"}
	}
	if v.blacklist != nil && v.blacklist.IsRevoked(ctx, token) {
		return Identity{}, &AuthError{Reason: "token revoked"}
	}
	claims, err := utils.ParseToken(v.secret, token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return Identity{}, &AuthError{Reason: "token has expired, please log in again"}
		}
		return Identity{}, &AuthError{Reason: "invalid token"}
	}

	user, err := v.users.FindUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, &AuthError{Reason: "user not found or inactive"}
		}
		return Identity{}, storeErr("find user", err)
	}
	if !user.Active {
		return Identity{}, &AuthError{Reason: "user not found or inactive"}
	}
	return Identity{ID: user.ID, Name: user.Name, Role: user.Role, Active: user.Active}, nil
}

// Revoke blacklists token until its natural expiry.
func (v *TokenVerifier) Revoke(ctx context.Context, token string) error {
	claims, err := utils.ParseToken(v.secret, token)
	if err != nil {
		return &AuthError{Reason: "invalid token"}
	}
	if v.blacklist == nil {
		return nil
	}
	expiresAt := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	v.blacklist.Revoke(ctx, token, expiresAt)
	return nil
}

func requireActive(identity Identity) error {
	if !identity.Active || identity.Name == "" {
		return &AuthError{Reason: "user not found or inactive"}
	}
	return nil
}
