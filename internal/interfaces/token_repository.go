package interfaces

import (
	"context"

	"storygen-server/internal/models"

	"github.com/google/uuid"
)

// TokenRepository defines the interface for token persistence (Redis).
// Implementations store access/refresh UUIDs mapped to the user ID so
// tokens can be revoked on logout.
type TokenRepository interface {
	// SetToken stores the token details (Access & Refresh UUIDs mapped to UserID)
	// with appropriate TTLs.
	SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error

	// GetUserIDByAccessUUID checks if the Access UUID exists in the store and returns the associated UserID.
	// Returns models.ErrTokenNotFound if the token is not found (or expired).
	GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error)

	// GetUserIDByRefreshUUID checks if the Refresh UUID exists in the store and returns the associated UserID.
	// Returns models.ErrTokenNotFound if the token is not found (or expired).
	GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error)

	// DeleteTokens removes the specified token UUIDs from the store.
	// Returns the number of keys deleted.
	DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) (int64, error)

	// DeleteTokensByUserID removes all tokens associated with a user ID.
	// Returns the number of tokens deleted.
	DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}
