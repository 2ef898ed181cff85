package service

import (
	"context"

	"storygen-server/internal/models"

	"github.com/google/uuid"
)

// AuthService defines the interface for account management: registration,
// login, token refresh and author profiles.
type AuthService interface {
	// Register creates a new account and issues a token pair.
	Register(ctx context.Context, email, password string) (*models.User, *models.TokenDetails, error)

	// Login verifies credentials and issues a token pair.
	Login(ctx context.Context, email, password string) (*models.User, *models.TokenDetails, error)

	// Refresh rotates a refresh token: the old one is revoked and a new
	// token pair is issued.
	Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error)

	// Logout revokes all tokens of a user.
	Logout(ctx context.Context, userID uuid.UUID) error

	// GetUser returns the account of a user.
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// GetProfile returns the author profile of a user. A user without a
	// stored profile gets an empty default, not an error.
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)

	// UpdateProfile creates or replaces the author profile of a user.
	UpdateProfile(ctx context.Context, profile *models.UserProfile) error
}
