package interfaces

import (
	"context"

	"storygen-server/internal/models"

	"github.com/google/uuid"
)

// SessionStateRepository defines the interface for restorable editor
// session state (Redis). State survives reconnects but carries a TTL.
type SessionStateRepository interface {
	// SaveSession stores the editor session of a user, refreshing its TTL.
	SaveSession(ctx context.Context, userID uuid.UUID, session *models.EditorSession) error

	// GetSession retrieves the editor session of a user.
	// Returns models.ErrNotFound if no session is stored (or it expired).
	GetSession(ctx context.Context, userID uuid.UUID) (*models.EditorSession, error)

	// DeleteSession removes the stored session, e.g. on logout.
	DeleteSession(ctx context.Context, userID uuid.UUID) error
}
