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

// Compile-time check to ensure pgUserProfileRepository implements UserProfileRepository
var _ interfaces.UserProfileRepository = (*pgUserProfileRepository)(nil)

type pgUserProfileRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgUserProfileRepository creates a new PostgreSQL-backed UserProfileRepository.
func NewPgUserProfileRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.UserProfileRepository {
	return &pgUserProfileRepository{
		db:     db,
		logger: logger.Named("PgUserProfileRepo"),
	}
}

const getProfileQuery = `
SELECT user_id, display_name, preferred_genres, preferred_tone, default_framework, onboarding_done, updated_at
FROM user_profiles
WHERE user_id = $1`

// GetProfile retrieves the profile of a user.
func (r *pgUserProfileRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	err := pgxscan.Get(ctx, r.db, profile, getProfileQuery, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProfileNotFound
		}
		r.logger.Error("Failed to get user profile from postgres", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to get user profile from postgres: %w", err)
	}
	return profile, nil
}

const upsertProfileQuery = `
INSERT INTO user_profiles (user_id, display_name, preferred_genres, preferred_tone, default_framework, onboarding_done, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (user_id) DO UPDATE
SET display_name = EXCLUDED.display_name,
    preferred_genres = EXCLUDED.preferred_genres,
    preferred_tone = EXCLUDED.preferred_tone,
    default_framework = EXCLUDED.default_framework,
    onboarding_done = EXCLUDED.onboarding_done,
    updated_at = NOW()`

// UpsertProfile creates or replaces the profile of a user.
func (r *pgUserProfileRepository) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	genres := profile.PreferredGenres
	if genres == nil {
		genres = []string{}
	}
	_, err := r.db.Exec(ctx, upsertProfileQuery,
		profile.UserID, profile.DisplayName, genres, profile.PreferredTone, profile.DefaultFramework, profile.OnboardingDone)
	if err != nil {
		r.logger.Error("Failed to upsert user profile in postgres", zap.Error(err), zap.String("userID", profile.UserID.String()))
		return fmt.Errorf("failed to upsert user profile in postgres: %w", err)
	}
	return nil
}
