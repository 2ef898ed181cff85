package database

import (
	"context"
	"errors"
	"fmt"

	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgProjectVersionRepository implements ProjectVersionRepository
var _ interfaces.ProjectVersionRepository = (*pgProjectVersionRepository)(nil)

type pgProjectVersionRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgProjectVersionRepository creates a new PostgreSQL-backed ProjectVersionRepository.
func NewPgProjectVersionRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ProjectVersionRepository {
	return &pgProjectVersionRepository{
		db:     db,
		logger: logger.Named("PgProjectVersionRepo"),
	}
}

const createVersionQuery = `
INSERT INTO project_versions (id, project_id, label, title, stages_content, raw_story_idea, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
RETURNING created_at`

// CreateVersion inserts a new snapshot for a project.
func (r *pgProjectVersionRepository) CreateVersion(ctx context.Context, version *models.ProjectVersion) error {
	if version.ID == uuid.Nil {
		version.ID = uuid.New()
	}
	if version.StagesContent == nil {
		version.StagesContent = map[string]string{}
	}
	err := r.db.QueryRow(ctx, createVersionQuery,
		version.ID, version.ProjectID, version.Label, version.Title,
		version.StagesContent, version.RawStoryIdea,
	).Scan(&version.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create project version in postgres", zap.Error(err), zap.String("projectID", version.ProjectID.String()))
		return fmt.Errorf("failed to create project version in postgres: %w", err)
	}
	r.logger.Debug("Project version created",
		zap.String("versionID", version.ID.String()),
		zap.String("projectID", version.ProjectID.String()),
		zap.String("label", version.Label),
	)
	return nil
}

const listVersionsQuery = `
SELECT id, project_id, label, title, stages_content, raw_story_idea, created_at
FROM project_versions
WHERE project_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`

// ListVersions retrieves the newest snapshots of a project, capped at the
// retention window even when a trim has not caught up yet.
func (r *pgProjectVersionRepository) ListVersions(ctx context.Context, projectID uuid.UUID) ([]models.ProjectVersion, error) {
	var versions []models.ProjectVersion
	err := pgxscan.Select(ctx, r.db, &versions, listVersionsQuery, projectID, models.MaxProjectVersions)
	if err != nil {
		r.logger.Error("Failed to list project versions from postgres", zap.Error(err), zap.String("projectID", projectID.String()))
		return nil, fmt.Errorf("failed to list project versions from postgres: %w", err)
	}
	return versions, nil
}

const getVersionQuery = `
SELECT id, project_id, label, title, stages_content, raw_story_idea, created_at
FROM project_versions
WHERE id = $1 AND project_id = $2`

// GetVersionByID retrieves a single snapshot of a project.
func (r *pgProjectVersionRepository) GetVersionByID(ctx context.Context, projectID, versionID uuid.UUID) (*models.ProjectVersion, error) {
	version := &models.ProjectVersion{}
	err := pgxscan.Get(ctx, r.db, version, getVersionQuery, versionID, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Project version not found", zap.String("versionID", versionID.String()), zap.String("projectID", projectID.String()))
			return nil, models.ErrVersionNotFound
		}
		r.logger.Error("Failed to get project version from postgres", zap.Error(err), zap.String("versionID", versionID.String()))
		return nil, fmt.Errorf("failed to get project version from postgres: %w", err)
	}
	return version, nil
}

// Oldest rows beyond the keep window are selected by created_at rank and removed.
const trimVersionsQuery = `
DELETE FROM project_versions
WHERE project_id = $1
  AND id NOT IN (
    SELECT id FROM project_versions
    WHERE project_id = $1
    ORDER BY created_at DESC, id DESC
    LIMIT $2
  )`

// DeleteVersionsBeyond removes the oldest snapshots so that at most keep remain.
func (r *pgProjectVersionRepository) DeleteVersionsBeyond(ctx context.Context, projectID uuid.UUID, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	tag, err := r.db.Exec(ctx, trimVersionsQuery, projectID, keep)
	if err != nil {
		r.logger.Error("Failed to trim project versions in postgres", zap.Error(err), zap.String("projectID", projectID.String()))
		return 0, fmt.Errorf("failed to trim project versions in postgres: %w", err)
	}
	deleted := tag.RowsAffected()
	if deleted > 0 {
		r.logger.Debug("Trimmed old project versions", zap.String("projectID", projectID.String()), zap.Int64("deleted", deleted))
	}
	return deleted, nil
}
