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
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgProjectRepository implements ProjectRepository
var _ interfaces.ProjectRepository = (*pgProjectRepository)(nil)

type pgProjectRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgProjectRepository creates a new PostgreSQL-backed ProjectRepository.
func NewPgProjectRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ProjectRepository {
	return &pgProjectRepository{
		db:     db,
		logger: logger.Named("PgProjectRepo"),
	}
}

const createProjectQuery = `
INSERT INTO projects (id, user_id, title, framework_id, stages_content, raw_story_idea, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
RETURNING created_at, updated_at`

// CreateProject inserts a new project.
func (r *pgProjectRepository) CreateProject(ctx context.Context, project *models.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.StagesContent == nil {
		project.StagesContent = map[string]string{}
	}
	err := r.db.QueryRow(ctx, createProjectQuery,
		project.ID, project.UserID, project.Title, project.FrameworkID,
		project.StagesContent, project.RawStoryIdea,
	).Scan(&project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			r.logger.Warn("Attempted to create project for unknown user", zap.String("userID", project.UserID.String()))
			return models.ErrUserNotFound
		}
		r.logger.Error("Failed to create project in postgres", zap.Error(err), zap.String("userID", project.UserID.String()))
		return fmt.Errorf("failed to create project in postgres: %w", err)
	}
	r.logger.Info("Project created", zap.String("projectID", project.ID.String()), zap.String("userID", project.UserID.String()))
	return nil
}

const getProjectQuery = `
SELECT id, user_id, title, framework_id, stages_content, raw_story_idea, created_at, updated_at
FROM projects
WHERE id = $1 AND user_id = $2`

// GetProjectByID retrieves a project owned by the given user.
func (r *pgProjectRepository) GetProjectByID(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	project := &models.Project{}
	err := pgxscan.Get(ctx, r.db, project, getProjectQuery, projectID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Project not found", zap.String("projectID", projectID.String()), zap.String("userID", userID.String()))
			return nil, models.ErrProjectNotFound
		}
		r.logger.Error("Failed to get project from postgres", zap.Error(err), zap.String("projectID", projectID.String()))
		return nil, fmt.Errorf("failed to get project from postgres: %w", err)
	}
	return project, nil
}

const listProjectsQuery = `
SELECT id, user_id, title, framework_id, stages_content, raw_story_idea, created_at, updated_at
FROM projects
WHERE user_id = $1
ORDER BY updated_at DESC`

// ListProjectsByUser retrieves all projects of a user, newest first.
func (r *pgProjectRepository) ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	err := pgxscan.Select(ctx, r.db, &projects, listProjectsQuery, userID)
	if err != nil {
		r.logger.Error("Failed to list projects from postgres", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to list projects from postgres: %w", err)
	}
	return projects, nil
}

// CountProjectsByUser returns the number of projects a user currently owns.
func (r *pgProjectRepository) CountProjectsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM projects WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count projects in postgres", zap.Error(err), zap.String("userID", userID.String()))
		return 0, fmt.Errorf("failed to count projects in postgres: %w", err)
	}
	return count, nil
}

const updateProjectContentQuery = `
UPDATE projects
SET title = $3, stages_content = $4, raw_story_idea = $5, updated_at = NOW()
WHERE id = $1 AND user_id = $2`

// UpdateProjectContent replaces the title, stages content and raw idea of a project.
func (r *pgProjectRepository) UpdateProjectContent(ctx context.Context, project *models.Project) error {
	if project.StagesContent == nil {
		project.StagesContent = map[string]string{}
	}
	tag, err := r.db.Exec(ctx, updateProjectContentQuery,
		project.ID, project.UserID, project.Title, project.StagesContent, project.RawStoryIdea)
	if err != nil {
		r.logger.Error("Failed to update project content in postgres", zap.Error(err), zap.String("projectID", project.ID.String()))
		return fmt.Errorf("failed to update project content in postgres: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Project content update affected no rows", zap.String("projectID", project.ID.String()), zap.String("userID", project.UserID.String()))
		return models.ErrProjectNotFound
	}
	return nil
}

// UpdateProjectTitle renames a project.
func (r *pgProjectRepository) UpdateProjectTitle(ctx context.Context, userID, projectID uuid.UUID, title string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE projects SET title = $3, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
		projectID, userID, title)
	if err != nil {
		r.logger.Error("Failed to update project title in postgres", zap.Error(err), zap.String("projectID", projectID.String()))
		return fmt.Errorf("failed to update project title in postgres: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProjectNotFound
	}
	return nil
}

// DeleteProject removes a project and returns the number of rows deleted.
func (r *pgProjectRepository) DeleteProject(ctx context.Context, userID, projectID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM projects WHERE id = $1 AND user_id = $2`,
		projectID, userID)
	if err != nil {
		r.logger.Error("Failed to delete project from postgres", zap.Error(err), zap.String("projectID", projectID.String()))
		return 0, fmt.Errorf("failed to delete project from postgres: %w", err)
	}
	deleted := tag.RowsAffected()
	r.logger.Info("Project delete executed", zap.String("projectID", projectID.String()), zap.Int64("deleted", deleted))
	return deleted, nil
}
