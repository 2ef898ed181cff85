package interfaces

import (
	"context"

	"storygen-server/internal/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data persistence (PostgreSQL).
type UserRepository interface {
	// CreateUser inserts a new user.
	// Returns models.ErrUserAlreadyExists on a duplicate email.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by their ID.
	// Returns models.ErrUserNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetUserByEmail retrieves a user by their email address.
	// Returns models.ErrUserNotFound if the user does not exist.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateUserTier changes the subscription tier of a user.
	// Returns models.ErrUserNotFound if no row was affected.
	UpdateUserTier(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier) error
}

// UserProfileRepository defines the interface for author profile persistence.
type UserProfileRepository interface {
	// GetProfile retrieves the profile of a user.
	// Returns models.ErrProfileNotFound if the user has no profile yet.
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)

	// UpsertProfile creates or replaces the profile of a user.
	UpsertProfile(ctx context.Context, profile *models.UserProfile) error
}
