package interfaces

import (
	"context"

	"storygen-server/internal/models"

	"github.com/google/uuid"
)

// ProjectRepository defines the interface for project persistence (PostgreSQL).
type ProjectRepository interface {
	// CreateProject inserts a new project.
	CreateProject(ctx context.Context, project *models.Project) error

	// GetProjectByID retrieves a project owned by the given user.
	// Returns models.ErrProjectNotFound if it does not exist or belongs to another user.
	GetProjectByID(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error)

	// ListProjectsByUser retrieves all projects of a user ordered by last update, newest first.
	ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error)

	// CountProjectsByUser returns the number of projects a user currently owns.
	CountProjectsByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// UpdateProjectContent replaces the title, stages content and raw idea of a project.
	// Returns models.ErrProjectNotFound if no row was affected.
	UpdateProjectContent(ctx context.Context, project *models.Project) error

	// UpdateProjectTitle renames a project.
	// Returns models.ErrProjectNotFound if no row was affected.
	UpdateProjectTitle(ctx context.Context, userID, projectID uuid.UUID, title string) error

	// DeleteProject removes a project and returns the number of rows deleted.
	// Version snapshots are removed by the ON DELETE CASCADE constraint.
	DeleteProject(ctx context.Context, userID, projectID uuid.UUID) (int64, error)
}

// ProjectVersionRepository defines the interface for the project version
// history ring buffer (PostgreSQL).
type ProjectVersionRepository interface {
	// CreateVersion inserts a new snapshot for a project.
	CreateVersion(ctx context.Context, version *models.ProjectVersion) error

	// ListVersions retrieves the newest snapshots of a project, capped
	// at the retention window.
	ListVersions(ctx context.Context, projectID uuid.UUID) ([]models.ProjectVersion, error)

	// GetVersionByID retrieves a single snapshot of a project.
	// Returns models.ErrVersionNotFound if it does not exist.
	GetVersionByID(ctx context.Context, projectID, versionID uuid.UUID) (*models.ProjectVersion, error)

	// DeleteVersionsBeyond removes the oldest snapshots so that at most
	// keep snapshots remain. Returns the number of rows deleted.
	DeleteVersionsBeyond(ctx context.Context, projectID uuid.UUID, keep int) (int64, error)
}
